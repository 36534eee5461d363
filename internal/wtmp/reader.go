package wtmp

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"logindb/internal/record"
)

/**
 * Reader maps a history log read-only.
 * The record count is fixed when the log is opened; records appended later
 * are not visible, and a trailing partial record is ignored.
 */
type Reader struct {
	file  *os.File
	data  mmap.MMap
	width record.Width
	count int
}

func Open(path string, w record.Width) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}

	r := &Reader{file: f, width: w}

	// An empty mapping is not allowed.
	if fi.Size() < int64(w.Size()) {
		return r, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: mmap %s: %w", ErrIO, path, err)
	}
	r.data = data
	r.count = len(data) / w.Size()

	return r, nil
}

func (r *Reader) Len() int {
	return r.count
}

func (r *Reader) Width() record.Width {
	return r.width
}

// At decodes the i-th record, oldest first.
func (r *Reader) At(i int) (*record.Record, error) {
	if i < 0 || i >= r.count {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, r.count)
	}
	return record.Unmarshal(r.slot(i), r.width)
}

func (r *Reader) slot(i int) []byte {
	size := r.width.Size()
	return r.data[i*size : (i+1)*size]
}

// Reverse returns an iterator from the newest record back to the oldest.
func (r *Reader) Reverse() *Iterator {
	return &Iterator{r: r, next: r.count - 1}
}

func (r *Reader) Close() error {
	var err error
	if r.data != nil {
		err = r.data.Unmap()
		r.data = nil
	}
	r.count = 0
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

type Iterator struct {
	r    *Reader
	next int
}

// Next decodes the following record into out. It reports false once the
// oldest record has been returned.
func (it *Iterator) Next(out *record.Record) bool {
	if it.next < 0 || it.next >= it.r.count {
		return false
	}
	if err := record.UnmarshalInto(it.r.slot(it.next), it.r.width, out); err != nil {
		return false
	}
	it.next--
	return true
}
