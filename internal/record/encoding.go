package record

import (
	"errors"

	"logindb/pkg"
)

var ErrInsufficientBuffer = errors.New("buffer too small")

// Width selects one of the two on-disk layouts of the same record.
type Width uint8

const (
	Wide   Width = iota // 64-bit tv_sec
	Narrow              // legacy 32-bit tv_sec
)

const NARROW_SIZE = 384
const WIDE_SIZE = 400

/*
 * Both layouts share every offset up to and including ut_session.
 * They diverge at ut_tv: the wide layout aligns a 64-bit tv_sec to 8 bytes
 * and pads tv_usec to 8, which pushes ut_addr_v6 and the reserved tail.
 */
const (
	offKind    = 0
	offPID     = 4
	offLine    = 8
	offID      = offLine + LINE_SIZE
	offUser    = offID + ID_SIZE
	offHost    = offUser + NAME_SIZE
	offExit    = offHost + HOST_SIZE
	offSession = offExit + 4

	narrowOffSec  = offSession + 4
	narrowOffUsec = narrowOffSec + pkg.LenTime32
	narrowOffAddr = narrowOffUsec + 4

	wideOffSec  = offSession + 8
	wideOffUsec = wideOffSec + pkg.LenTime64
	wideOffAddr = wideOffUsec + 8
)

func (w Width) Size() int {
	if w == Narrow {
		return NARROW_SIZE
	}
	return WIDE_SIZE
}

func (w Width) String() string {
	if w == Narrow {
		return "narrow"
	}
	return "wide"
}

func (w Width) addrOffset() int {
	if w == Narrow {
		return narrowOffAddr
	}
	return wideOffAddr
}

/**
 * Marshals the record into dest using the layout of w.
 * Returns the number of bytes written; reserved bytes are zeroed.
 */
func (r *Record) MarshalTo(dest []byte, w Width) (int, error) {
	size := w.Size()
	if len(dest) < size {
		return 0, ErrInsufficientBuffer
	}
	dest = dest[:size]
	clear(dest)

	pkg.Encod.PutUint16(dest[offKind:], uint16(r.Kind))
	pkg.Encod.PutUint32(dest[offPID:], uint32(r.PID))
	copy(dest[offLine:offID], r.Line[:])
	copy(dest[offID:offUser], r.ID[:])
	copy(dest[offUser:offHost], r.User[:])
	copy(dest[offHost:offExit], r.Host[:])
	pkg.Encod.PutUint16(dest[offExit:], uint16(r.Exit.Termination))
	pkg.Encod.PutUint16(dest[offExit+2:], uint16(r.Exit.Exit))
	pkg.Encod.PutUint32(dest[offSession:], uint32(r.Session))

	if w == Narrow {
		pkg.Encod.PutUint32(dest[narrowOffSec:], uint32(int32(r.Time.Sec)))
		pkg.Encod.PutUint32(dest[narrowOffUsec:], uint32(r.Time.Usec))
	} else {
		pkg.Encod.PutUint64(dest[wideOffSec:], uint64(r.Time.Sec))
		pkg.Encod.PutUint32(dest[wideOffUsec:], uint32(r.Time.Usec))
	}

	addr := w.addrOffset()
	copy(dest[addr:addr+ADDR_SIZE], r.Addr[:])

	return size, nil
}

// Marshal returns a freshly allocated encoding of r.
func (r *Record) Marshal(w Width) []byte {
	buf := make([]byte, w.Size())
	_, _ = r.MarshalTo(buf, w)
	return buf
}

/**
 * Unmarshals one record laid out as w from src into r.
 * Every field is copied out, r does not alias src.
 */
func UnmarshalInto(src []byte, w Width, r *Record) error {
	if len(src) < w.Size() {
		return ErrInsufficientBuffer
	}

	r.Kind = Kind(pkg.Encod.Uint16(src[offKind:]))
	r.PID = int32(pkg.Encod.Uint32(src[offPID:]))
	copy(r.Line[:], src[offLine:offID])
	copy(r.ID[:], src[offID:offUser])
	copy(r.User[:], src[offUser:offHost])
	copy(r.Host[:], src[offHost:offExit])
	r.Exit.Termination = int16(pkg.Encod.Uint16(src[offExit:]))
	r.Exit.Exit = int16(pkg.Encod.Uint16(src[offExit+2:]))
	r.Session = int32(pkg.Encod.Uint32(src[offSession:]))

	if w == Narrow {
		r.Time.Sec = int64(int32(pkg.Encod.Uint32(src[narrowOffSec:])))
		r.Time.Usec = int32(pkg.Encod.Uint32(src[narrowOffUsec:]))
	} else {
		r.Time.Sec = int64(pkg.Encod.Uint64(src[wideOffSec:]))
		r.Time.Usec = int32(pkg.Encod.Uint32(src[wideOffUsec:]))
	}

	addr := w.addrOffset()
	copy(r.Addr[:], src[addr:addr+ADDR_SIZE])

	return nil
}

// Unmarshal decodes a record laid out as w.
func Unmarshal(src []byte, w Width) (*Record, error) {
	var r Record
	if err := UnmarshalInto(src, w, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// NarrowFromWide converts one wide record to the narrow layout field for
// field. Seconds are truncated to 32 bits, every other byte is carried over.
// Short input is treated as zero padded.
func NarrowFromWide(wide []byte) []byte {
	src := padded(wide, WIDE_SIZE)
	dst := make([]byte, NARROW_SIZE)

	copy(dst[:narrowOffSec], src[:narrowOffSec])
	sec := int64(pkg.Encod.Uint64(src[wideOffSec:]))
	pkg.Encod.PutUint32(dst[narrowOffSec:], uint32(int32(sec)))
	copy(dst[narrowOffUsec:narrowOffUsec+4], src[wideOffUsec:wideOffUsec+4])
	copy(dst[narrowOffAddr:narrowOffAddr+ADDR_SIZE], src[wideOffAddr:wideOffAddr+ADDR_SIZE])

	return dst
}

// WideFromNarrow converts one narrow record to the wide layout, sign
// extending the 32-bit seconds.
func WideFromNarrow(narrow []byte) []byte {
	src := padded(narrow, NARROW_SIZE)
	dst := make([]byte, WIDE_SIZE)

	copy(dst[:narrowOffSec], src[:narrowOffSec])
	sec := int32(pkg.Encod.Uint32(src[narrowOffSec:]))
	pkg.Encod.PutUint64(dst[wideOffSec:], uint64(int64(sec)))
	copy(dst[wideOffUsec:wideOffUsec+4], src[narrowOffUsec:narrowOffUsec+4])
	copy(dst[wideOffAddr:wideOffAddr+ADDR_SIZE], src[narrowOffAddr:narrowOffAddr+ADDR_SIZE])

	return dst
}

func padded(b []byte, size int) []byte {
	if len(b) >= size {
		return b[:size]
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}
