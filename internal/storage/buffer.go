// Package storage implements the reference-counted aligned buffer and the
// shaped storage built on top of it.
package storage

import (
	"sync/atomic"
	"unsafe"

	_ "go4.org/unsafe/assume-no-moving-gc"

	"github.com/csotherden/nova/internal/alloc"
	"github.com/csotherden/nova/internal/xerr"
)

// Buffer is a reference-counted owner of a raw byte region obtained from a
// BFC pool. Copies (via Clone) share ownership; the region is released
// back to its pool when the last owner calls Release.
//
// The refcount is atomic because tensors are freely cloned across
// goroutines.
//
// ptr holds a raw pointer into pool-owned memory across calls, which
// only stays valid under the non-moving-GC assumption the blank
// import above asserts.
type Buffer struct {
	pool  *alloc.Pool
	ptr   unsafe.Pointer
	nbyte int64
	align int64
	refs  *atomic.Int64
}

// NewBuffer allocates nbyte bytes aligned to align from pool.
func NewBuffer(pool *alloc.Pool, nbyte, align int64) (*Buffer, error) {
	ptr, err := pool.Allocate(nbyte, align)
	if err != nil {
		return nil, xerr.Wrap(err, xerr.OutOfMemory, "storage.NewBuffer", "pool allocation failed")
	}
	refs := &atomic.Int64{}
	refs.Store(1)
	return &Buffer{pool: pool, ptr: ptr, nbyte: nbyte, align: align, refs: refs}, nil
}

// Len reports the buffer's size in bytes.
func (b *Buffer) Len() int64 { return b.nbyte }

// Alignment reports the buffer's declared alignment in bytes.
func (b *Buffer) Alignment() int64 { return b.align }

// Clone returns a new owner sharing the same underlying region.
func (b *Buffer) Clone() *Buffer {
	b.refs.Add(1)
	return &Buffer{pool: b.pool, ptr: b.ptr, nbyte: b.nbyte, align: b.align, refs: b.refs}
}

// Release decrements the reference count, freeing the region back to its
// pool when it reaches zero. Calling Release more times than there are
// owners is a caller bug; it is not guarded against, matching raw
// refcounted-pointer semantics.
func (b *Buffer) Release() {
	if b.refs.Add(-1) == 0 {
		_ = b.pool.Deallocate(b.ptr)
	}
}

// bytes exposes the full backing region as a byte slice, valid as long as
// the buffer is not released.
func (b *Buffer) bytes() []byte {
	return unsafe.Slice((*byte)(b.ptr), b.nbyte)
}

// View returns a typed slice over element offsets [start, start+n) of the
// buffer, where each element is itemsize bytes wide. It fails with
// TensorError.OutOfRange if the requested span exceeds the buffer.
func View[T any](b *Buffer, start, n int64) ([]T, error) {
	var zero T
	itemsize := int64(unsafe.Sizeof(zero))
	end := (start + n) * itemsize
	if start < 0 || n < 0 || end > b.nbyte {
		return nil, xerr.Newf(xerr.OutOfRange, "storage.View",
			"element range [%d,%d) exceeds buffer of %d bytes", start, start+n, b.nbyte)
	}
	base := unsafe.Add(b.ptr, start*itemsize)
	return unsafe.Slice((*T)(base), n), nil
}
