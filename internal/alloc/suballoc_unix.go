//go:build unix

package alloc

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/csotherden/nova/internal/xerr"
)

// cpuSubAllocator obtains regions from the OS via anonymous mmap. mmap
// already returns page-aligned memory; for alignments up to the page
// size this is exact, and for larger alignments we over-map and trim,
// handing back an address inside the mapping (the deallocate path
// unmaps the full span it originally requested, recorded by
// registerMapping and found again with lookupMapping).
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

	pageSize := int64(unix.Getpagesize())
	mapSize := size
	if alignment > pageSize {
		mapSize += alignment
	}

	data, err := unix.Mmap(-1, 0, int(mapSize),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, xerr.Newf(xerr.OutOfMemory, op, "mmap(%d): %v", mapSize, err)
	}

	base := uintptr(unsafe.Pointer(&data[0]))
	aligned := (base + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)
	offset := aligned - base

	registerMapping(unsafe.Pointer(&data[0]), mapSize, offset)
	return unsafe.Pointer(&data[offset]), nil
}

func (cpuSubAllocator) deallocateRegion(ptr unsafe.Pointer, size int64) {
	mapPtr, mapSize, ok := lookupMapping(ptr)
	if !ok {
		return
	}
	data := unsafe.Slice((*byte)(mapPtr), mapSize)
	_ = unix.Munmap(data)
	forgetMapping(ptr)
}
