// Package wtmp appends to and reads the login history log, a flat file of
// records that only ever grows.
package wtmp

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/sys/unix"

	"logindb/internal/config"
	"logindb/internal/lock"
	"logindb/internal/record"
	"logindb/internal/resource"
)

var discard = log.New(io.Discard, "", 0)

// Append writes r to the end of the log at path in width w.
func Append(path string, r *record.Record, w record.Width, timeout time.Duration) error {
	return appendRecord(path, r, w, timeout, discard)
}

/*
 * Write buf after the last whole record of the log.
 * A tail that is not a whole record (a crashed writer) is cut off first; a
 * short write is cut off again so the log stays a whole number of records.
 */
func appendRecord(path string, r *record.Record, w record.Width, timeout time.Duration, logger *log.Logger) error {
	ptr := resource.GetBuffer(w.Size())
	defer resource.PutBuffer(ptr)
	buf := *ptr
	if _, err := r.MarshalTo(buf, w); err != nil {
		return err
	}

	f, err := openFile(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()

	if err := lock.Acquire(f, lock.Write, timeout); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(f); err != nil {
			logger.Printf("[Appender] %s: %v", path, err)
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}

	size := int64(len(buf))
	end := fi.Size() / size * size
	if end != fi.Size() {
		logger.Printf("[Appender] %s: dropping %d byte partial record at %d", path, fi.Size()-end, end)
		if err := f.Truncate(end); err != nil {
			return fmt.Errorf("%w: truncate %s: %w", ErrIO, path, err)
		}
	}

	n, err := f.WriteAt(buf, end)
	if n == len(buf) {
		return nil
	}
	if n == 0 && err != nil && !errors.Is(err, unix.ENOSPC) {
		return fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	if terr := f.Truncate(end); terr != nil {
		logger.Printf("[Appender] %s: truncate after short write: %v", path, terr)
	}
	return fmt.Errorf("%w: wrote %d of %d bytes at %d", ErrOutOfSpace, n, len(buf), end)
}

// Appender appends to the configured history log.
type Appender struct {
	path    string
	width   record.Width
	timeout time.Duration
	log     *log.Logger
}

func NewAppender(cfg config.Config) (*Appender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.WtmpPath == "" {
		return nil, fmt.Errorf("%w: empty wtmp path", config.ErrInvalidConfig)
	}

	return &Appender{
		path:    cfg.WtmpPath,
		width:   cfg.WidthFor(cfg.WtmpPath),
		timeout: cfg.LockTimeout,
		log:     cfg.Logger,
	}, nil
}

func (a *Appender) Path() string        { return a.path }
func (a *Appender) Width() record.Width { return a.width }

func (a *Appender) Append(r *record.Record) error {
	return appendRecord(a.path, r, a.width, a.timeout, a.log)
}
