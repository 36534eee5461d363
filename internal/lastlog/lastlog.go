// Package lastlog reads and writes the per-uid last login file. The entry of
// uid n lives at n times the entry size; unwritten slots read back as zero.
package lastlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"logindb/internal/lock"
	"logindb/internal/record"
	"logindb/internal/resource"
)

// Read returns the entry of uid, waiting at most timeout for the read lock.
func Read(path string, uid uint32, w record.Width, timeout time.Duration) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()

	if err := lock.Acquire(f, lock.Read, timeout); err != nil {
		return nil, err
	}
	defer lock.Release(f)

	ptr := resource.GetBuffer(Size(w))
	defer resource.PutBuffer(ptr)
	buf := *ptr

	off := int64(uid) * int64(len(buf))
	n, err := f.ReadAt(buf, off)
	if n < len(buf) {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: read %s at %d: %w", ErrIO, path, off, err)
		}
		return nil, fmt.Errorf("%w: uid %d", ErrNotFound, uid)
	}

	e := &Entry{}
	if err := UnmarshalInto(buf, w, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Write stores e as the entry of uid, creating the file when missing.
func Write(path string, uid uint32, e *Entry, w record.Width, timeout time.Duration) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()

	if err := lock.Acquire(f, lock.Write, timeout); err != nil {
		return err
	}
	defer lock.Release(f)

	ptr := resource.GetBuffer(Size(w))
	defer resource.PutBuffer(ptr)
	buf := *ptr
	if _, err := e.MarshalTo(buf, w); err != nil {
		return err
	}

	off := int64(uid) * int64(len(buf))
	n, err := f.WriteAt(buf, off)
	if n < len(buf) {
		if n == 0 && err != nil && !errors.Is(err, unix.ENOSPC) {
			return fmt.Errorf("%w: write %s at %d: %w", ErrIO, path, off, err)
		}
		return fmt.Errorf("%w: wrote %d of %d bytes at %d", ErrOutOfSpace, n, len(buf), off)
	}
	return nil
}
