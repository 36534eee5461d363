package wtmp

import (
	"errors"

	"logindb/internal/store"
)

var (
	ErrIO         = store.ErrIO
	ErrOutOfSpace = store.ErrOutOfSpace

	ErrOutOfRange = errors.New("record index out of range")
)
