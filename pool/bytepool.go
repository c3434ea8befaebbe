// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool recycles fixed-size scratch slabs for socket reads.
type BytePool struct {
	pool sync.Pool
	size int
}

// NewBytePool creates a pool handing out slabs of the given size.
func NewBytePool(size int) *BytePool {
	return &BytePool{
		pool: sync.Pool{
			New: func() any { return make([]byte, size) },
		},
		size: size,
	}
}

// GetBuffer returns a slab from the pool.
func (b *BytePool) GetBuffer() []byte {
	return b.pool.Get().([]byte)
}

// PutBuffer returns a slab to the pool. Slabs of a different size are
// dropped for the GC to reclaim.
func (b *BytePool) PutBuffer(buf []byte) {
	if len(buf) != b.size {
		return
	}
	b.pool.Put(buf)
}
