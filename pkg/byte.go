package pkg

import (
	"bytes"
	"encoding/binary"
)

const (
	// Field widths (in bytes) shared by the on-disk layouts
	LenLine = 32
	LenName = 32
	LenHost = 256
	LenID   = 4
	LenAddr = 16

	LenTime32 = 4
	LenTime64 = 8
)

// Encoding alias (records are stored in host order, little endian on every supported target)
var Encod = binary.LittleEndian

// PutString copies s into a fixed-width field, truncating or NUL padding it.
func PutString(dst []byte, s string) {
	n := copy(dst, s)
	clear(dst[n:])
}

// CString returns the bytes of b up to the first NUL.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
