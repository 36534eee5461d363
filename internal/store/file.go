package store

import (
	"io"
	"os"
)

// slotFile is the part of *os.File the store relies on.
type slotFile interface {
	io.ReaderAt
	io.WriterAt
	Fd() uintptr
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
	Close() error
}

// openFile never creates: the file's existence and mode are the host's policy.
var openFile = func(path string, flag int) (slotFile, error) {
	return os.OpenFile(path, flag, 0)
}
