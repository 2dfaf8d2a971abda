package alloc

import (
	"testing"
	"unsafe"

	"github.com/csotherden/nova/config"
)

func testConfig(minAlloc, quantum, alignment int64) config.Config {
	return config.Config{
		MinAllocationSize: minAlloc,
		InitialQuantum:    quantum,
		DefaultAlignment:  alignment,
	}
}

// liveChunks returns the non-zeroed entries of p.chunks, i.e. the chunks
// still reachable through the prev/next chain after merges have zeroed
// out whatever they absorbed.
func liveChunks(p *Pool) []chunk {
	var out []chunk
	for _, c := range p.chunks {
		if c.ptr != nil {
			out = append(out, c)
		}
	}
	return out
}

func TestPoolAllocateDeallocateRoundTrip(t *testing.T) {
	cfg := testConfig(8, 4096, 8)
	p := NewUnsyncedPool(cfg)

	sizes := []int64{16, 32, 17, 257, 4097, 96, 1}
	ptrs := make([]unsafe.Pointer, 0, len(sizes))
	for _, sz := range sizes {
		ptr, err := p.Allocate(sz, 8)
		if err != nil {
			t.Fatalf("Allocate(%d): %v", sz, err)
		}
		ptrs = append(ptrs, ptr)
	}

	stats := p.Stats()
	if stats.LiveBytes == 0 {
		t.Fatalf("expected nonzero LiveBytes after allocating, got 0")
	}

	for i, sz := range sizes {
		if err := p.Deallocate(ptrs[i]); err != nil {
			t.Fatalf("Deallocate size %d: %v", sz, err)
		}
	}

	stats = p.Stats()
	if stats.LiveBytes != 0 {
		t.Fatalf("expected LiveBytes == 0 after freeing everything, got %d", stats.LiveBytes)
	}
	if stats.FreeBytes != stats.RegionBytes {
		t.Fatalf("expected all region bytes free, got FreeBytes=%d RegionBytes=%d", stats.FreeBytes, stats.RegionBytes)
	}
}

func TestPoolDeallocateUnknownPointerErrors(t *testing.T) {
	cfg := testConfig(8, 4096, 8)
	p := NewUnsyncedPool(cfg)

	ptr, err := p.Allocate(32, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := p.Deallocate(ptr); err != nil {
		t.Fatalf("first Deallocate: %v", err)
	}
	if err := p.Deallocate(ptr); err == nil {
		t.Fatalf("expected double-free of %p to error, got nil", ptr)
	}
}

// TestPoolCoalescesChunksFreedInReverseAllocationOrder exercises the BFC
// round-trip scenario: allocate a run of same-size chunks that exactly
// fill one region, free them in the reverse of allocation order, and
// confirm the region collapses back into the single free chunk it
// started as. Reverse order is the adversarial case for coalescing: each
// freed chunk's lower-address neighbour is still in use at the moment it
// is freed, so only merging toward the higher-address neighbour (already
// freed, since it was freed earlier in the reverse walk) brings the
// chunks back together.
func TestPoolCoalescesChunksFreedInReverseAllocationOrder(t *testing.T) {
	const (
		chunkSize = 64
		count     = 1000
	)
	cfg := testConfig(1, chunkSize*count, 8)
	p := NewUnsyncedPool(cfg)

	ptrs := make([]unsafe.Pointer, count)
	for i := 0; i < count; i++ {
		ptr, err := p.Allocate(chunkSize, 8)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		ptrs[i] = ptr
	}

	if got := len(liveChunks(p)); got != count {
		t.Fatalf("expected %d live chunks after allocating, got %d", count, got)
	}

	for i := count - 1; i >= 0; i-- {
		if err := p.Deallocate(ptrs[i]); err != nil {
			t.Fatalf("Deallocate #%d: %v", i, err)
		}
	}

	live := liveChunks(p)
	if len(live) != 1 {
		t.Fatalf("expected a single coalesced free chunk after reverse-order free, got %d live chunks", len(live))
	}
	if live[0].inUse {
		t.Fatalf("surviving chunk should be free, got inUse=true")
	}
	if live[0].size != chunkSize*count {
		t.Fatalf("expected coalesced chunk to span the whole region (%d bytes), got %d", chunkSize*count, live[0].size)
	}

	stats := p.Stats()
	if stats.LiveBytes != 0 {
		t.Fatalf("expected LiveBytes == 0, got %d", stats.LiveBytes)
	}
	if stats.FreeBytes != chunkSize*count {
		t.Fatalf("expected FreeBytes == %d, got %d", chunkSize*count, stats.FreeBytes)
	}
}

// TestPoolCoalescesChunksFreedInAllocationOrder is the mirror of the
// reverse-order case: forward-order frees hit the backward-merge path
// instead of the forward one, and should collapse to the same single
// chunk.
func TestPoolCoalescesChunksFreedInAllocationOrder(t *testing.T) {
	const (
		chunkSize = 32
		count     = 200
	)
	cfg := testConfig(1, chunkSize*count, 8)
	p := NewUnsyncedPool(cfg)

	ptrs := make([]unsafe.Pointer, count)
	for i := 0; i < count; i++ {
		ptr, err := p.Allocate(chunkSize, 8)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		ptrs[i] = ptr
	}

	for i := 0; i < count; i++ {
		if err := p.Deallocate(ptrs[i]); err != nil {
			t.Fatalf("Deallocate #%d: %v", i, err)
		}
	}

	live := liveChunks(p)
	if len(live) != 1 {
		t.Fatalf("expected a single coalesced free chunk after forward-order free, got %d live chunks", len(live))
	}
	if live[0].size != chunkSize*count {
		t.Fatalf("expected coalesced chunk to span the whole region (%d bytes), got %d", chunkSize*count, live[0].size)
	}
}

// TestPoolCoalescesChunksFreedInRandomOrder covers the general case: a
// fixed-seed shuffle of free order, which can hit both merge directions
// within the same run, not just one exclusively. Each 48-byte request
// rounds up to a 64-byte chunk, so the region is sized in rounded units.
func TestPoolCoalescesChunksFreedInRandomOrder(t *testing.T) {
	const (
		chunkSize   = 48
		roundedSize = 64
		count       = 300
	)
	cfg := testConfig(1, roundedSize*count, 8)
	p := NewUnsyncedPool(cfg)

	ptrs := make([]unsafe.Pointer, count)
	for i := 0; i < count; i++ {
		ptr, err := p.Allocate(chunkSize, 8)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		ptrs[i] = ptr
	}

	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	// Fixed-seed deterministic shuffle (no math/rand dependency on
	// process-global state): a Fisher-Yates pass driven by a small
	// xorshift generator is enough to mix allocation order without flakiness.
	state := uint64(88172645463325252)
	for i := len(order) - 1; i > 0; i-- {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		j := int(state % uint64(i+1))
		order[i], order[j] = order[j], order[i]
	}

	for _, i := range order {
		if err := p.Deallocate(ptrs[i]); err != nil {
			t.Fatalf("Deallocate #%d: %v", i, err)
		}
	}

	live := liveChunks(p)
	if len(live) != 1 {
		t.Fatalf("expected a single coalesced free chunk after random-order free, got %d live chunks", len(live))
	}
	if live[0].size != roundedSize*count {
		t.Fatalf("expected coalesced chunk to span the whole region (%d bytes), got %d", roundedSize*count, live[0].size)
	}
}
