package wtmp

import (
	"io"
	"os"
)

type logFile interface {
	io.WriterAt
	Fd() uintptr
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
	Close() error
}

// The log is never created here; a missing file disables history.
var openFile = func(path string) (logFile, error) {
	return os.OpenFile(path, os.O_WRONLY, 0)
}
