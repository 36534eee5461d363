package record

import "errors"

var (
	// ErrInvalidKey occurs when a search key uses a kind that cannot be
	// looked up (EMPTY, ACCOUNTING or an unknown value).
	ErrInvalidKey = errors.New("invalid search key")
)
