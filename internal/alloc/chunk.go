package alloc

import (
	"sort"
	"unsafe"
)

type chunkID int64

const invalidChunkID chunkID = -1

// chunk is a node in the pool: a span of a region that is either free (and
// sitting in exactly one bucket) or in use (and in no bucket). prev/next
// describe the physically adjacent chunks within the same region, forming
// a doubly-linked chain with no gaps and no overlaps.
type chunk struct {
	ptr           unsafe.Pointer
	size          int64
	requestedSize int64
	inUse         bool

	id         chunkID
	prev, next chunkID
}

func (c *chunk) endPtr() unsafe.Pointer {
	return unsafe.Pointer(uintptr(c.ptr) + uintptr(c.size))
}

// bucket is a power-of-two size class holding free chunk ids ordered by
// (size, address) ascending for best-fit selection: the first chunk whose
// actual size is >= a request is the best fit, and ties break toward the
// lowest address to discourage regions fragmenting at high addresses.
type bucket struct {
	size  int64
	free  []chunkID // kept sorted by (chunks[id].size, chunks[id].ptr)
}

func newBucket(size int64) *bucket {
	return &bucket{size: size}
}

func (b *bucket) less(chunks []chunk, a, c chunkID) bool {
	ca, cc := &chunks[a], &chunks[c]
	if ca.size != cc.size {
		return ca.size < cc.size
	}
	return uintptr(ca.ptr) < uintptr(cc.ptr)
}

func (b *bucket) insert(chunks []chunk, id chunkID) {
	i := sort.Search(len(b.free), func(i int) bool {
		return !b.less(chunks, b.free[i], id)
	})
	b.free = append(b.free, invalidChunkID)
	copy(b.free[i+1:], b.free[i:])
	b.free[i] = id
}

func (b *bucket) remove(id chunkID) {
	for i, fid := range b.free {
		if fid == id {
			b.free = append(b.free[:i], b.free[i+1:]...)
			return
		}
	}
}

// firstFitAtLeast returns the first free chunk (in best-fit order) whose
// size is >= size, or invalidChunkID if none qualifies.
func (b *bucket) firstFitAtLeast(chunks []chunk, size int64) chunkID {
	for _, id := range b.free {
		if chunks[id].size >= size {
			return id
		}
	}
	return invalidChunkID
}
