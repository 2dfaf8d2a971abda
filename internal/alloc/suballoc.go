package alloc

import (
	"sync"
	"unsafe"

	"github.com/csotherden/nova/internal/xerr"
)

// subAllocator is the narrow seam between the BFC pool and the operating
// system: obtain an aligned byte region, and give one back. Keeping this
// as an interface means the pool never talks to the OS directly.
type subAllocator interface {
	allocateRegion(alignment, size int64) (unsafe.Pointer, error)
	deallocateRegion(ptr unsafe.Pointer, size int64)
}

func isPowerOfTwo(n int64) bool { return n > 0 && n&(n-1) == 0 }

const minAlignment = int64(unsafe.Sizeof(uintptr(0)))

func validateAlignment(op string, alignment int64) error {
	if alignment < minAlignment || !isPowerOfTwo(alignment) {
		return xerr.Newf(xerr.BadAlignment, op,
			"alignment %d must be a power of two >= %d", alignment, minAlignment)
	}
	return nil
}

// mappingInfo records the full span a region was carved out of, so
// deallocateRegion can hand the whole thing back even though the pool only
// ever sees the aligned sub-pointer.
type mappingInfo struct {
	basePtr unsafe.Pointer
	size    int64
}

var (
	mappingsMu sync.Mutex
	mappings   = map[unsafe.Pointer]mappingInfo{}
)

func registerMapping(basePtr unsafe.Pointer, mapSize int64, alignedOffset uintptr) {
	aligned := unsafe.Pointer(uintptr(basePtr) + alignedOffset)
	mappingsMu.Lock()
	mappings[aligned] = mappingInfo{basePtr: basePtr, size: mapSize}
	mappingsMu.Unlock()
}

func lookupMapping(aligned unsafe.Pointer) (unsafe.Pointer, int64, bool) {
	mappingsMu.Lock()
	defer mappingsMu.Unlock()
	info, ok := mappings[aligned]
	if !ok {
		return nil, 0, false
	}
	return info.basePtr, info.size, true
}

func forgetMapping(aligned unsafe.Pointer) {
	mappingsMu.Lock()
	delete(mappings, aligned)
	mappingsMu.Unlock()
}
