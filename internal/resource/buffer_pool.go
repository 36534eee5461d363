package resource

import "sync"

// Buffers larger than this are left to the garbage collector.
const maxPooledBuffer = 4096

var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 512)
		return &b
	},
}

// GetBuffer returns a zeroed buffer of exactly size bytes. Hand it back with
// PutBuffer once nothing refers to it.
func GetBuffer(size int) *[]byte {
	ptr := bufferPool.Get().(*[]byte)
	if cap(*ptr) < size {
		b := make([]byte, size)
		return &b
	}
	*ptr = (*ptr)[:size]
	clear(*ptr)
	return ptr
}

func PutBuffer(ptr *[]byte) {
	if cap(*ptr) > maxPooledBuffer {
		return
	}
	bufferPool.Put(ptr)
}
