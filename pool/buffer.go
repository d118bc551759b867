package pool

import (
	"bytes"
	"sync"
)

var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// AcquireBuffer gets an empty buffer from the pool.
func AcquireBuffer() *bytes.Buffer {
	b := bufferPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// ReleaseBuffer returns a buffer to the pool.
func ReleaseBuffer(b *bytes.Buffer) {
	if b == nil {
		return
	}
	// Don't return oversized buffers
	if b.Cap() <= 1<<20 {
		bufferPool.Put(b)
	}
}
