package alloc

import (
	"unsafe"

	"github.com/google/uuid"
)

// region describes one OS-level allocation the pool has carved chunks out
// of. Regions are never returned to the OS until the pool is torn down;
// the uuid tags the region in the pool's growth log line, so debug output
// can tell one physical mapping from another.
type region struct {
	id        uuid.UUID
	ptr       unsafe.Pointer
	size      int64
	alignment int64
}

// regionManager resolves pointers back to the chunk that owns them and
// keeps the list of regions the pool currently holds.
type regionManager struct {
	ptrToChunk map[unsafe.Pointer]chunkID
	regions    []region
}

func newRegionManager() *regionManager {
	return &regionManager{ptrToChunk: make(map[unsafe.Pointer]chunkID)}
}

func (rm *regionManager) addRegion(ptr unsafe.Pointer, size, alignment int64) region {
	r := region{id: uuid.New(), ptr: ptr, size: size, alignment: alignment}
	rm.regions = append(rm.regions, r)
	return r
}

func (rm *regionManager) setChunkID(ptr unsafe.Pointer, id chunkID) {
	rm.ptrToChunk[ptr] = id
}

func (rm *regionManager) chunkIDForPtr(ptr unsafe.Pointer) (chunkID, bool) {
	id, ok := rm.ptrToChunk[ptr]
	return id, ok
}

func (rm *regionManager) eraseChunk(ptr unsafe.Pointer) bool {
	if _, ok := rm.ptrToChunk[ptr]; !ok {
		return false
	}
	delete(rm.ptrToChunk, ptr)
	return true
}

func (rm *regionManager) findRegionForPtr(ptr unsafe.Pointer) (region, bool) {
	addr := uintptr(ptr)
	for _, r := range rm.regions {
		base := uintptr(r.ptr)
		if addr >= base && addr < base+uintptr(r.size) {
			return r, true
		}
	}
	return region{}, false
}
