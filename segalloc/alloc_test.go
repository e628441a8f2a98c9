package segalloc

import (
	"unsafe"

	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMallocZeroReturnsNil(t *testing.T) {
	a := newTestAllocator(t, 64*1024)
	assert.Nil(t, a.Malloc(0))
	assert.Nil(t, a.Malloc(-1))
}

func TestFreeNilIsNoop(t *testing.T) {
	a := newTestAllocator(t, 64*1024)
	assert.NotPanics(t, func() { a.Free(nil) })
}

// S1: allocating two blocks then freeing both coalesces them back into
// one block large enough to satisfy a request that needed both.
func TestScenarioSplitAndCoalesce(t *testing.T) {
	a := newTestAllocator(t, 64*1024)
	a.Debug = true

	p1 := a.Malloc(64)
	p2 := a.Malloc(64)
	require.NotNil(t, p1)
	require.NotNil(t, p2)

	a.Free(p1)
	a.Free(p2)

	require.NoError(t, a.CheckHeap("test"))

	p3 := a.Malloc(64 + 64 + 8) // needs the coalesced span
	assert.NotNil(t, p3)
}

// S2: minimum-size blocks round-trip through malloc/free without
// corrupting neighbor tags, and footer elision doesn't break
// traversal of a chain of minimum blocks.
func TestScenarioMinimumBlockHandling(t *testing.T) {
	a := newTestAllocator(t, 64*1024)
	a.Debug = true

	const n = 64
	ptrs := make([]unsafe.Pointer, n)
	for i := range ptrs {
		ptrs[i] = a.Malloc(1)
		require.NotNil(t, ptrs[i])
	}
	require.NoError(t, a.CheckHeap("after-alloc"))

	for i := 0; i < n; i += 2 {
		a.Free(ptrs[i])
	}
	require.NoError(t, a.CheckHeap("after-partial-free"))

	for i := 1; i < n; i += 2 {
		a.Free(ptrs[i])
	}
	require.NoError(t, a.CheckHeap("after-full-free"))
}

// S3: small requests go through the first-fit path and large ones
// through the bounded better-fit path, and each is still satisfied
// after earlier blocks have been freed. Which block a request lands in
// is not asserted.
func TestScenarioFirstFitVsBetterFit(t *testing.T) {
	a := newTestAllocator(t, 256*1024)

	small := a.Malloc(16)
	require.NotNil(t, small)
	a.Free(small)

	// first-fit: a second equally-small request reuses the freed block.
	again := a.Malloc(16)
	assert.NotNil(t, again)

	big1 := a.Malloc(2048)
	big2 := a.Malloc(512)
	require.NotNil(t, big1)
	require.NotNil(t, big2)
	a.Free(big1)
	a.Free(big2)

	// better-fit: once both are freed, big1 and big2 coalesce with each
	// other and with the free tail, so this request is served from that
	// single merged span.
	fit := a.Malloc(500)
	assert.NotNil(t, fit)
}

// S4: realloc preserves payload contents up to the lesser of the old
// and new sizes.
func TestScenarioReallocPreservesData(t *testing.T) {
	a := newTestAllocator(t, 64*1024)

	p := a.Malloc(32)
	require.NotNil(t, p)
	src := (*[32]byte)(p)
	for i := range src {
		src[i] = byte(i + 1)
	}
	want := *src // p is freed by Realloc, so keep a copy of its contents

	grown := a.Realloc(p, 128)
	require.NotNil(t, grown)
	dst := (*[32]byte)(grown)
	assert.Equal(t, want, *dst)

	shrunk := a.Realloc(grown, 8)
	require.NotNil(t, shrunk)
	small := (*[8]byte)(shrunk)
	for i := 0; i < 8; i++ {
		assert.Equal(t, byte(i+1), small[i])
	}
}

func TestReallocNilIsMalloc(t *testing.T) {
	a := newTestAllocator(t, 64*1024)
	p := a.Realloc(nil, 32)
	assert.NotNil(t, p)
}

func TestReallocZeroIsFree(t *testing.T) {
	a := newTestAllocator(t, 64*1024)
	p := a.Malloc(32)
	require.NotNil(t, p)
	assert.Nil(t, a.Realloc(p, 0))
}

// S5: calloc zeroes the requested region and rejects overflowing
// element-count * element-size products.
func TestScenarioCallocZeroingAndOverflow(t *testing.T) {
	a := newTestAllocator(t, 64*1024)

	p := a.Calloc(8, 16)
	require.NotNil(t, p)
	buf := (*[128]byte)(p)
	for _, b := range buf {
		assert.Zero(t, b)
	}

	overflow := a.Calloc(^uintptr(0), 2)
	assert.Nil(t, overflow)

	assert.Nil(t, a.Calloc(0, 16))
	assert.Nil(t, a.Calloc(16, 0))
}

// S6: once the backing heap is exhausted, further allocations fail
// cleanly (nil) without corrupting the heap or crashing.
func TestScenarioHeapExhaustionSafety(t *testing.T) {
	a := newTestAllocator(t, 8*1024)
	a.Debug = true

	var last unsafe.Pointer
	for i := 0; i < 10000; i++ {
		p := a.Malloc(64)
		if p == nil {
			break
		}
		last = p
	}
	assert.Nil(t, a.Malloc(1<<30))
	require.NoError(t, a.CheckHeap("after-exhaustion"))

	if last != nil {
		a.Free(last)
		require.NoError(t, a.CheckHeap("after-free-post-exhaustion"))
	}
}

func TestStatsTracksAllocsAndFrees(t *testing.T) {
	a := newTestAllocator(t, 64*1024)

	p := a.Malloc(64)
	require.NotNil(t, p)
	a.Free(p)

	s := a.Stats()
	assert.Equal(t, uint64(1), s.Allocs)
	assert.Equal(t, uint64(1), s.Frees)
}
