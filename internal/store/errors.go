package store

import "errors"

var (
	// ErrNotFound is returned when a search reaches the end of the file
	// without a matching record. It is a normal negative result.
	ErrNotFound = errors.New("record not found")

	// ErrIO wraps open, read, write, stat and truncate failures.
	ErrIO = errors.New("login record I/O failure")

	// ErrStale is returned by UpsertIf when the slot no longer holds the
	// record the caller expected.
	ErrStale = errors.New("record changed since it was read")

	// ErrOutOfSpace is returned when a record was only partially written.
	ErrOutOfSpace = errors.New("short write: out of space")
)
