package lastlog

import (
	"fmt"
	"time"

	"logindb/internal/record"
	"logindb/pkg"
)

const (
	WIDE_SIZE   = pkg.LenTime64 + pkg.LenLine + pkg.LenHost // 296
	NARROW_SIZE = pkg.LenTime32 + pkg.LenLine + pkg.LenHost // 292
)

// Entry is the last login of one uid.
type Entry struct {
	Time int64
	Line [pkg.LenLine]byte
	Host [pkg.LenHost]byte
}

func Size(w record.Width) int {
	if w == record.Narrow {
		return NARROW_SIZE
	}
	return WIDE_SIZE
}

func (e *Entry) SetLine(s string) { pkg.PutString(e.Line[:], s) }
func (e *Entry) SetHost(s string) { pkg.PutString(e.Host[:], s) }

func (e *Entry) LineString() string { return pkg.CString(e.Line[:]) }
func (e *Entry) HostString() string { return pkg.CString(e.Host[:]) }

func (e *Entry) Timestamp() time.Time { return time.Unix(e.Time, 0) }

/*
 * Encode e into dest.
 * Narrow entries keep only the low 32 bits of the time.
 */
func (e *Entry) MarshalTo(dest []byte, w record.Width) (int, error) {
	size := Size(w)
	if len(dest) < size {
		return 0, fmt.Errorf("%w: need %d, have %d", record.ErrInsufficientBuffer, size, len(dest))
	}

	off := pkg.LenTime64
	if w == record.Narrow {
		off = pkg.LenTime32
		pkg.Encod.PutUint32(dest[0:], uint32(int32(e.Time)))
	} else {
		pkg.Encod.PutUint64(dest[0:], uint64(e.Time))
	}
	copy(dest[off:], e.Line[:])
	copy(dest[off+pkg.LenLine:], e.Host[:])

	return size, nil
}

func UnmarshalInto(src []byte, w record.Width, e *Entry) error {
	size := Size(w)
	if len(src) < size {
		return fmt.Errorf("%w: need %d, have %d", record.ErrInsufficientBuffer, size, len(src))
	}

	off := pkg.LenTime64
	if w == record.Narrow {
		off = pkg.LenTime32
		e.Time = int64(int32(pkg.Encod.Uint32(src[0:])))
	} else {
		e.Time = int64(pkg.Encod.Uint64(src[0:]))
	}
	copy(e.Line[:], src[off:])
	copy(e.Host[:], src[off+pkg.LenLine:])

	return nil
}
