package lastlog

import (
	"errors"

	"logindb/internal/store"
)

var (
	// ErrNotFound means the uid has no slot in the file yet.
	ErrNotFound = errors.New("no lastlog entry")

	ErrIO         = store.ErrIO
	ErrOutOfSpace = store.ErrOutOfSpace
)
