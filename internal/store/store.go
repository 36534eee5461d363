// Package store implements the login record file: a flat array of fixed-size
// records shared by every process on the host.
//
// Each Store owns its own cursor (open handle, read position and the last
// record read). Entry points of one Store are serialized by a mutex; I/O
// against the file is serialized between handles and processes by advisory
// locks from package lock.
package store

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"golang.org/x/sys/unix"

	"logindb/internal/config"
	"logindb/internal/lock"
	"logindb/internal/record"
	"logindb/internal/resource"
)

type Store struct {
	mu    sync.Mutex
	cfg   config.Config
	width record.Width
	cur   cursor
	hints *resource.SlotCache
	log   *log.Logger
}

// New returns a store over cfg.UtmpPath in width w. The file and the slot
// hints are set up lazily by the first operation.
func New(cfg config.Config, w record.Width) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Store{
		cfg:   cfg,
		width: w,
		log:   cfg.Logger,
	}, nil
}

func (s *Store) Width() record.Width {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

// Path returns the file currently open, or "" when nothing is open.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cur.isOpen() {
		return ""
	}
	return s.cur.path
}

// Rewind moves the cursor to the first record, reopening the file when the
// width changes.
func (s *Store) Rewind(w record.Width) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.width = w
	return s.rewind()
}

// Next returns the record at the cursor and advances past it.
// io.EOF marks the end; a trailing partial record is never returned.
func (s *Store) Next() (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if err := lock.Acquire(s.cur.file, lock.Read, s.cfg.LockTimeout); err != nil {
		return nil, err
	}
	found, err := s.cur.readNext()
	s.unlock()

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, io.EOF
	}
	return s.cur.cached(), nil
}

// Find returns the record identified by key. The cached record is returned
// without I/O when it matches.
func (s *Store) Find(key record.Key) (*record.Record, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if err := lock.Acquire(s.cur.file, lock.Read, s.cfg.LockTimeout); err != nil {
		return nil, err
	}
	defer s.unlock()

	if s.cur.matches(key) {
		return s.cur.cached(), nil
	}

	found, err := s.search(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return s.cur.cached(), nil
}

// FindLine returns the next LOGIN or USER record on line, scanning forward
// from the cursor. Calling it again continues after the previous match.
func (s *Store) FindLine(line string) (*record.Record, error) {
	want := record.NewKey(record.UserProcess, "", line).Line

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if err := lock.Acquire(s.cur.file, lock.Read, s.cfg.LockTimeout); err != nil {
		return nil, err
	}
	defer s.unlock()

	for {
		found, err := s.cur.readNext()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrNotFound
		}
		if record.IsLoginOnLine(&s.cur.last, want) {
			return s.cur.cached(), nil
		}
	}
}

/*
 * Upsert writes r over the slot holding the same identity, or appends it.
 *
 * The slot is located under the write lock. A cache hit from an earlier read
 * is re-read and re-checked first, since another writer may have changed the
 * slot since. Appends land on the last whole record boundary, overwriting any
 * partial tail left by a crashed writer.
 */
func (s *Store) Upsert(r *record.Record) error {
	return s.upsert(r, nil)
}

// UpsertIf overwrites the slot holding r's identity only while expect holds
// for its current content. It never appends: a missing slot is ErrNotFound,
// a slot that fails expect is ErrStale.
func (s *Store) UpsertIf(r *record.Record, expect func(current *record.Record) bool) error {
	return s.upsert(r, expect)
}

func (s *Store) upsert(r *record.Record, expect func(*record.Record) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return err
	}
	if !s.cur.writable {
		if err := s.cur.promote(); err != nil {
			return err
		}
	}

	if err := lock.Acquire(s.cur.file, lock.Write, s.cfg.LockTimeout); err != nil {
		return err
	}
	defer s.unlock()

	key := record.KeyOf(r)
	size := s.cur.recordSize()

	found := false
	if s.cur.matches(key) {
		ok, err := s.cur.reread()
		if err != nil {
			return err
		}
		found = ok && s.cur.matches(key)
	}
	if !found {
		ok, err := s.search(key)
		if err != nil {
			return err
		}
		found = ok
	}

	if expect != nil {
		if !found {
			return fmt.Errorf("%w: %s", ErrNotFound, r)
		}
		if !expect(s.cur.cached()) {
			return fmt.Errorf("%w: %s", ErrStale, s.cur.cached())
		}
	}

	var off int64
	if found {
		off = s.cur.offset - size
	} else {
		fi, err := s.cur.file.Stat()
		if err != nil {
			return fmt.Errorf("%w: stat %s: %w", ErrIO, s.cur.path, err)
		}
		off = fi.Size() / size * size
		if off != fi.Size() {
			s.log.Printf("[Store] %s: overwriting %d byte partial record at %d", s.cur.path, fi.Size()-off, off)
		}
	}

	buf := r.Marshal(s.cur.width)
	n, err := s.cur.file.WriteAt(buf, off)
	if n != len(buf) {
		if n == 0 && err != nil && !errors.Is(err, unix.ENOSPC) {
			return fmt.Errorf("%w: write %s at %d: %w", ErrIO, s.cur.path, off, err)
		}
		if !found {
			// Drop the partial append.
			_ = s.cur.file.Truncate(off)
		}
		return fmt.Errorf("%w: wrote %d of %d bytes at %d", ErrOutOfSpace, n, len(buf), off)
	}

	s.cur.offset = off + size
	_ = record.UnmarshalInto(buf, s.cur.width, &s.cur.last)
	s.hints.Put(key.Digest(s.cur.width), off)

	return nil
}

// Close releases the file handle and the slot hints. The next operation
// reopens both.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hints.Close()
	s.hints = nil
	return s.cur.close()
}

/* ensureOpen opens the file on first use or after a width change */
func (s *Store) ensureOpen() error {
	if s.cur.isOpen() && s.cur.width == s.width {
		return nil
	}
	return s.rewind()
}

// rewind forgets slot hints whenever a different file gets opened.
func (s *Store) rewind() error {
	if s.hints == nil {
		hints, err := resource.NewSlotCache(s.cfg.SlotCacheSize)
		if err != nil {
			return fmt.Errorf("slot cache: %w", err)
		}
		s.hints = hints
	}

	prev := s.cur.path
	if err := s.cur.rewind(s.cfg, s.width); err != nil {
		return err
	}
	if s.cur.path != prev {
		s.hints.Clear()
	}
	return nil
}

func (s *Store) unlock() {
	if err := lock.Release(s.cur.file); err != nil {
		s.log.Printf("[Store] %s: %v", s.cur.path, err)
	}
}

/*
 * search positions the cursor just past a record matching key.
 * Order: remembered slot, forward from the cursor, then from the start of
 * the file up to where the forward scan began. The caller holds a lock.
 */
func (s *Store) search(key record.Key) (bool, error) {
	start := s.cur.save()
	digest := key.Digest(s.cur.width)

	if off, ok := s.hints.Get(digest); ok {
		s.cur.offset = off
		found, err := s.cur.readNext()
		if err != nil {
			s.cur.restore(start)
			return false, err
		}
		if found && key.Matches(&s.cur.last) {
			return true, nil
		}
		s.hints.Forget(digest)
		s.cur.restore(start)
	}

	found, err := s.scan(key, -1)
	if err != nil || found {
		return found, err
	}

	if start.offset > 0 {
		s.cur.offset = 0
		found, err = s.scan(key, start.offset)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

// scan reads forward until a match, end of file, or the limit offset
// (negative for no limit).
func (s *Store) scan(key record.Key, limit int64) (bool, error) {
	for limit < 0 || s.cur.offset < limit {
		found, err := s.cur.readNext()
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		if key.Matches(&s.cur.last) {
			s.hints.Put(key.Digest(s.cur.width), s.cur.offset-s.cur.recordSize())
			return true, nil
		}
	}
	return false, nil
}
