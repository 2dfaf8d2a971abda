//go:build !unix

package alloc

import (
	"sync"
	"unsafe"

	_ "go4.org/unsafe/assume-no-moving-gc" // document: regions below rely on Go's GC never moving heap objects
)

var (
	keepAliveMu sync.Mutex
	keepAlive   = map[unsafe.Pointer][]byte{}
)

// cpuSubAllocator is the portable fallback sub-allocator for platforms
// without mmap (e.g. windows, wasm). It over-allocates a Go byte slice and
// manually aligns a pointer into it, keeping the backing slice alive in
// keepAlive for the region's lifetime so the (non-moving, but
// collectible) Go GC never reclaims memory the pool still thinks is live.
type cpuSubAllocator struct{}

func newSubAllocator() subAllocator { return cpuSubAllocator{} }

func (cpuSubAllocator) allocateRegion(alignment, size int64) (unsafe.Pointer, error) {
	const op = "alloc.allocateRegion"
	if err := validateAlignment(op, alignment); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 1
	}

	raw := make([]byte, size+alignment)
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)
	offset := aligned - base

	keepAliveMu.Lock()
	keepAlive[unsafe.Pointer(&raw[offset])] = raw
	keepAliveMu.Unlock()

	return unsafe.Pointer(&raw[offset]), nil
}

func (cpuSubAllocator) deallocateRegion(ptr unsafe.Pointer, size int64) {
	keepAliveMu.Lock()
	delete(keepAlive, ptr)
	keepAliveMu.Unlock()
}
