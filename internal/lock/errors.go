package lock

import "errors"

var (
	ErrLockTimeout = errors.New("timed out waiting for file lock")
	ErrLockFailed  = errors.New("file lock failed")
)
