// Package alloc implements the best-fit-with-coalescing (BFC) memory pool
// that backs every tensor storage allocation, plus the aligned
// sub-allocator it grows its regions through.
//
// Size-class buckets over contiguous regions, splitting a chunk's tail
// off when the remainder is usefully large, and coalescing adjacent free
// chunks back together on release by walking the physical prev/next
// chain.
package alloc

import (
	"math/bits"
	"sort"
	"sync"
	"unsafe"

	"github.com/csotherden/nova/config"
	"github.com/csotherden/nova/internal/nlog"
	"github.com/csotherden/nova/internal/xerr"
)

// Pool is a BFC allocator. The zero value is not usable; construct one
// with NewPool or NewUnsyncedPool.
type Pool struct {
	mu       sync.Locker
	sub      subAllocator
	chunks   []chunk
	buckets  map[int64]*bucket
	region   *regionManager
	cfg      config.Config

	currentQuantum int64
	nextChunkID    int64
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// NewPool constructs a process-wide BFC pool guarded by a coarse mutex,
// suitable for sharing across goroutines.
func NewPool(cfg config.Config) *Pool {
	return newPool(cfg, &sync.Mutex{})
}

// NewUnsyncedPool constructs a BFC pool with no internal locking, for the
// per-goroutine-pool configuration where callers already guarantee
// exclusive access.
func NewUnsyncedPool(cfg config.Config) *Pool {
	return newPool(cfg, noopLocker{})
}

func newPool(cfg config.Config, locker sync.Locker) *Pool {
	return &Pool{
		mu:             locker,
		sub:            newSubAllocator(),
		buckets:        make(map[int64]*bucket),
		region:         newRegionManager(),
		cfg:            cfg,
		currentQuantum: cfg.InitialQuantum,
	}
}

// roundUpPow2 rounds n up to the next power of two (n itself if already
// one), matching PoolAllocator::round_up_pow2.
func roundUpPow2(n int64) int64 {
	if n <= 1 {
		return 1
	}
	return int64(1) << bits.Len64(uint64(n-1))
}

// roundDownPow2 rounds n down to the largest power of two <= n.
func roundDownPow2(n int64) int64 {
	if n <= 1 {
		return 1
	}
	return int64(1) << (bits.Len64(uint64(n)) - 1)
}

func (p *Pool) getOrCreateBucket(size int64) *bucket {
	b, ok := p.buckets[size]
	if !ok {
		b = newBucket(size)
		p.buckets[size] = b
	}
	return b
}

// Allocate returns a pointer to a region of at least size bytes, aligned
// to alignment. Zero-size requests round up to one byte; all requests
// round up to a power of two for bucket bookkeeping.
func (p *Pool) Allocate(size, alignment int64) (unsafe.Pointer, error) {
	const op = "Pool.Allocate"
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := validateAlignment(op, alignment); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 1
	}
	size = roundUpPow2(size)

	id := p.findFreeChunkForSize(size)
	if id == invalidChunkID {
		if err := p.growPoolForSize(size, alignment); err != nil {
			return nil, err
		}
		id = p.findFreeChunkForSize(size)
		if id == invalidChunkID {
			return nil, xerr.Newf(xerr.OutOfMemory, op, "no chunk available after growth for size %d", size)
		}
	}

	c := &p.chunks[id]
	p.eraseChunkFromBucket(c)

	allocatedID := p.splitChunkForAllocation(id, size)
	allocated := &p.chunks[allocatedID]
	allocated.inUse = true
	allocated.requestedSize = size

	nlog.Debugf("alloc: allocated chunk %d size=%d requested=%d", allocatedID, allocated.size, size)
	return allocated.ptr, nil
}

// Deallocate returns ptr's chunk to its pool, coalescing with any free
// physically-adjacent neighbours.
func (p *Pool) Deallocate(ptr unsafe.Pointer) error {
	const op = "Pool.Deallocate"
	if ptr == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.region.chunkIDForPtr(ptr)
	if !ok {
		return xerr.Newf(xerr.UnknownPointer, op, "unknown pointer (double free or foreign pointer): %p", ptr)
	}

	c := &p.chunks[id]
	if !c.inUse {
		return xerr.Newf(xerr.UnknownPointer, op, "unknown pointer (double free or foreign pointer): %p", ptr)
	}
	c.inUse = false
	c.requestedSize = 0

	mergedID := p.freeAndMaybeCoalesce(id)
	merged := &p.chunks[mergedID]

	bucketSize := roundDownPow2(merged.size)
	b := p.getOrCreateBucket(bucketSize)
	b.insert(p.chunks, mergedID)
	return nil
}

func (p *Pool) findFreeChunkForSize(size int64) chunkID {
	sizeClass := roundUpPow2(size)
	for _, b := range p.orderedBucketsFrom(sizeClass) {
		if id := b.firstFitAtLeast(p.chunks, size); id != invalidChunkID {
			return id
		}
	}
	return invalidChunkID
}

// orderedBucketsFrom returns the buckets with size >= from, in ascending
// size order, scanning upward through size classes.
func (p *Pool) orderedBucketsFrom(from int64) []*bucket {
	sizes := make([]int64, 0, len(p.buckets))
	for sz := range p.buckets {
		if sz >= from {
			sizes = append(sizes, sz)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	out := make([]*bucket, len(sizes))
	for i, sz := range sizes {
		out[i] = p.buckets[sz]
	}
	return out
}

func (p *Pool) growPoolForSize(size, alignment int64) error {
	const op = "Pool.growPoolForSize"
	for p.currentQuantum < size {
		p.currentQuantum <<= 1
	}

	ptr, err := p.sub.allocateRegion(alignment, p.currentQuantum)
	if err != nil {
		return xerr.Wrap(err, xerr.OutOfMemory, op, "sub-allocator failed to grow region")
	}

	r := p.region.addRegion(ptr, p.currentQuantum, alignment)
	nlog.Infof("alloc: grew pool region=%s size=%d", r.id, p.currentQuantum)

	id := chunkID(p.nextChunkID)
	p.nextChunkID++
	c := chunk{
		ptr:  ptr,
		size: p.currentQuantum,
		id:   id,
		prev: invalidChunkID,
		next: invalidChunkID,
	}
	p.chunks = append(p.chunks, c)
	p.region.setChunkID(ptr, id)

	bucketSize := roundDownPow2(c.size)
	b := p.getOrCreateBucket(bucketSize)
	b.insert(p.chunks, id)
	return nil
}

// splitChunkForAllocation keeps the leading `size` bytes of the chunk as
// the chunk to allocate, and if the remainder is at least
// cfg.MinAllocationSize, carves it off as a new free chunk linked into
// the physical chain.
func (p *Pool) splitChunkForAllocation(id chunkID, size int64) chunkID {
	c := &p.chunks[id]
	remainder := c.size - size
	if remainder < p.cfg.MinAllocationSize {
		return id
	}

	remID := chunkID(p.nextChunkID)
	p.nextChunkID++

	remPtr := unsafe.Pointer(uintptr(c.ptr) + uintptr(size))
	rem := chunk{
		ptr:  remPtr,
		size: remainder,
		id:   remID,
		prev: id,
		next: c.next,
	}

	if c.next != invalidChunkID {
		p.chunks[c.next].prev = remID
	}
	c.next = remID
	c.size = size

	p.chunks = append(p.chunks, rem)
	p.region.setChunkID(remPtr, remID)

	remBucketSize := roundDownPow2(rem.size)
	b := p.getOrCreateBucket(remBucketSize)
	b.insert(p.chunks, remID)

	return id
}

func (p *Pool) eraseChunkFromBucket(c *chunk) {
	if c.size == 0 {
		return
	}
	bucketSize := roundDownPow2(c.size)
	b, ok := p.buckets[bucketSize]
	if !ok {
		return
	}
	b.remove(c.id)
}

// mergeChunks absorbs right into left when they are physically adjacent
// (left's end address equals right's start address), returning left's id;
// otherwise it is a no-op returning right's id unchanged.
func (p *Pool) mergeChunks(leftID, rightID chunkID) chunkID {
	left, right := &p.chunks[leftID], &p.chunks[rightID]
	if uintptr(left.ptr)+uintptr(left.size) != uintptr(right.ptr) {
		return rightID
	}

	p.region.eraseChunk(right.ptr)
	p.eraseChunkFromBucket(right)
	p.eraseChunkFromBucket(left)

	left.size += right.size

	rightNext := right.next
	left.next = rightNext
	if rightNext != invalidChunkID {
		p.chunks[rightNext].prev = leftID
	}

	*right = chunk{ptr: nil, id: right.id, prev: invalidChunkID, next: invalidChunkID}
	return leftID
}

// freeAndMaybeCoalesce merges a newly-freed chunk with both physical
// neighbors, not just one: backward with prev if prev is already free, then
// forward with next if next is already free. Checking only one direction
// misses the case where the chunk behind the one just freed happens to
// still be in use but the chunk ahead of it was freed earlier — reverse
// allocation-order frees hit exactly that case.
func (p *Pool) freeAndMaybeCoalesce(id chunkID) chunkID {
	current := id
	for {
		c := &p.chunks[current]
		if c.prev == invalidChunkID {
			break
		}
		prev := &p.chunks[c.prev]
		if prev.inUse {
			break
		}
		merged := p.mergeChunks(c.prev, current)
		if merged == current {
			break
		}
		current = merged
	}
	for {
		c := &p.chunks[current]
		if c.next == invalidChunkID {
			break
		}
		next := &p.chunks[c.next]
		if next.inUse {
			break
		}
		merged := p.mergeChunks(current, c.next)
		if merged != current {
			break
		}
	}
	return current
}

// Stats summarises live pool usage for diagnostics and metrics export.
type Stats struct {
	RegionCount  int
	ChunkCount   int
	LiveBytes    int64
	FreeBytes    int64
	RegionBytes  int64
}

// Stats reports current pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s Stats
	s.RegionCount = len(p.region.regions)
	for _, r := range p.region.regions {
		s.RegionBytes += r.size
	}
	for _, c := range p.chunks {
		if c.ptr == nil {
			continue
		}
		s.ChunkCount++
		if c.inUse {
			s.LiveBytes += c.size
		} else {
			s.FreeBytes += c.size
		}
	}
	return s
}
