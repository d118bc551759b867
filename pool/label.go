// Package pool provides sync.Pool wrappers for reducing GC pressure.
package pool

import (
	"strconv"
	"sync"
)

// LabelBuilder builds comma-separated trace labels in a reusable byte
// buffer.
type LabelBuilder struct {
	buf []byte
}

var labelBuilderPool = sync.Pool{
	New: func() any {
		return &LabelBuilder{
			buf: make([]byte, 0, 64),
		}
	},
}

// AcquireLabelBuilder gets a LabelBuilder from the pool.
// Call Release() when done to return it to the pool.
func AcquireLabelBuilder() *LabelBuilder {
	lb := labelBuilderPool.Get().(*LabelBuilder)
	lb.Reset()
	return lb
}

// Release returns the LabelBuilder to the pool.
func (b *LabelBuilder) Release() {
	if b == nil {
		return
	}
	// Don't return oversized buffers to the pool
	if cap(b.buf) <= 1024 {
		labelBuilderPool.Put(b)
	}
}

// Reset clears the buffer without deallocating.
func (b *LabelBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the current length of the label.
func (b *LabelBuilder) Len() int {
	return len(b.buf)
}

// Field appends a string field, preceded by a comma unless it is the first.
func (b *LabelBuilder) Field(s string) {
	b.sep()
	b.buf = append(b.buf, s...)
}

// IntField appends a decimal integer field.
func (b *LabelBuilder) IntField(n int) {
	b.sep()
	b.buf = strconv.AppendInt(b.buf, int64(n), 10)
}

func (b *LabelBuilder) sep() {
	if len(b.buf) > 0 {
		b.buf = append(b.buf, ',')
	}
}

// String returns the built label.
func (b *LabelBuilder) String() string {
	return string(b.buf)
}

// Label builds "<offset>,<length>,<name>".
func Label(offset, length int, name string) string {
	lb := AcquireLabelBuilder()
	defer lb.Release()
	lb.IntField(offset)
	lb.IntField(length)
	lb.Field(name)
	return lb.String()
}
