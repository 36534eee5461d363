package store

import (
	"errors"
	"fmt"
	"io"
	"os"

	"logindb/internal/config"
	"logindb/internal/record"
)

/**
 * A cursor owns one open handle on a store file and the position of the
 * next read. last caches the record that ends at offset; it is meaningful
 * only once something has been read since the last rewind (offset > 0).
 */
type cursor struct {
	file     slotFile
	path     string
	width    record.Width
	offset   int64
	writable bool

	last record.Record
	buf  []byte
}

type mark struct {
	offset int64
	last   record.Record
}

/* Open (or reuse) the handle for width w and move to the first record */
func (c *cursor) rewind(cfg config.Config, w record.Width) error {
	if c.file != nil && c.width != w {
		_ = c.close()
	}

	if c.file == nil {
		path := cfg.ResolvePath(cfg.UtmpPath, w)
		f, err := openFile(path, os.O_RDONLY)
		if err != nil {
			return fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
		}
		c.file = f
		c.path = path
		c.width = w
		c.writable = false
		c.buf = make([]byte, w.Size())
	}

	c.offset = 0
	return nil
}

func (c *cursor) isOpen() bool {
	return c.file != nil
}

func (c *cursor) recordSize() int64 {
	return int64(c.width.Size())
}

/*
 * Read the record at offset into the cache.
 * A short read means the tail holds no complete record and is reported like
 * end of file. offset and last only move on a complete read.
 */
func (c *cursor) readNext() (bool, error) {
	n, err := c.file.ReadAt(c.buf, c.offset)
	if n == len(c.buf) {
		if err := record.UnmarshalInto(c.buf, c.width, &c.last); err != nil {
			return false, err
		}
		c.offset += int64(n)
		return true, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return false, nil
	}
	return false, fmt.Errorf("%w: read %s at %d: %w", ErrIO, c.path, c.offset, err)
}

// matches compares key against the cached record.
func (c *cursor) matches(key record.Key) bool {
	if c.offset <= 0 {
		return false
	}
	return key.Matches(&c.last)
}

// reread moves back onto the cached slot and reads it again.
func (c *cursor) reread() (bool, error) {
	c.offset -= c.recordSize()
	return c.readNext()
}

func (c *cursor) save() mark {
	return mark{offset: c.offset, last: c.last}
}

func (c *cursor) restore(m mark) {
	c.offset = m.offset
	c.last = m.last
}

func (c *cursor) cached() *record.Record {
	r := c.last
	return &r
}

/*
 * Replace the read-only handle with a read-write one on the same file.
 * Position and cache are untouched; the old descriptor is closed only after
 * the new one is in place.
 */
func (c *cursor) promote() error {
	f, err := openFile(c.path, os.O_RDWR)
	if err != nil {
		return fmt.Errorf("%w: reopen %s for writing: %w", ErrIO, c.path, err)
	}
	old := c.file
	c.file = f
	c.writable = true
	_ = old.Close()
	return nil
}

func (c *cursor) close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	c.offset = 0
	c.writable = false
	c.last = record.Record{}
	if err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, c.path, err)
	}
	return nil
}
