package segalloc

import (
	"fmt"
	"unsafe"

	"github.com/segheap/segheap/simheap"
)

// DefaultChunkSize is the amount by which the heap grows when no free
// block is large enough to satisfy a request.
const DefaultChunkSize = 4096

// Stats is a read-only snapshot of allocator counters.
type Stats struct {
	Allocs      uint64
	Frees       uint64
	Coalesces   uint64
	Extends     uint64
	FreeByClass [numClasses]uint64
}

// Allocator is a segregated explicit free-list allocator driven over a
// simheap.Accessor. It is not safe for concurrent use: every public
// method assumes a single caller, per the single-threaded resource
// model this allocator targets.
type Allocator struct {
	heap simheap.Accessor
	base unsafe.Pointer

	epilogue block
	segList  [numClasses]block

	// ChunkSize is the minimum amount the heap grows by when no fit is
	// found. It defaults to DefaultChunkSize and may be changed before
	// the first allocation that needs to grow the heap.
	ChunkSize int

	// Debug gates CheckHeap calls from public entry points. It is off
	// by default; release builds should never need to flip it.
	Debug bool

	stats Stats
}

// NewAllocator initializes a fresh heap over arena: it lays down the
// prologue and epilogue sentinels and performs the first chunk-sized
// extension. arena.Bytes must return the full reserved backing region
// (not just the currently-committed prefix), since the allocator
// addresses memory relative to its first byte for the lifetime of the
// Allocator.
func NewAllocator(arena simheap.Accessor) (*Allocator, error) {
	if arena == nil {
		return nil, fmt.Errorf("segalloc: arena must not be nil")
	}
	buf := arena.Bytes()
	if len(buf) == 0 {
		return nil, fmt.Errorf("segalloc: arena has no backing memory")
	}

	a := &Allocator{
		heap:      arena,
		base:      unsafe.Pointer(&buf[0]),
		ChunkSize: DefaultChunkSize,
	}

	// prologue: a zero-size allocated sentinel block at offset 0.
	if _, ok := arena.Extend(align); !ok {
		return nil, fmt.Errorf("segalloc: failed to extend heap for prologue/epilogue")
	}
	a.setWordAt(0, pack(0, true, true, false))
	a.epilogue = block(wordSize)
	a.writeEpilogue(a.epilogue, true, false)

	if _, ok := a.extendHeap(uint64(a.ChunkSize)); !ok {
		return nil, fmt.Errorf("segalloc: failed to perform initial heap extension")
	}
	return a, nil
}

// extendHeap grows the heap by size bytes (rounded up to a 16-byte
// multiple), folds the new region into a single free block, coalesces
// it with whatever was the previous last block, and returns the
// resulting free block.
func (a *Allocator) extendHeap(size uint64) (block, bool) {
	size = roundUp(size, align)

	oldEpi := a.epilogue
	hdr := a.header(oldEpi)
	carryPrevAlloc := extractPrevAlloc(hdr)
	carryPrevMin := extractPrevMin(hdr)

	if _, ok := a.heap.Extend(int(size)); !ok {
		return nilBlock, false
	}
	a.stats.Extends++

	newFree := oldEpi
	newEpi := block(uintptr(newFree) + uintptr(size))
	a.writeEpilogue(newEpi, carryPrevAlloc, carryPrevMin)
	a.epilogue = newEpi

	a.writeBlock(newFree, size, false)
	return a.coalesceBlock(newFree), true
}

func adjustedSize(size int) uint64 {
	s := uint64(size) + wordSize
	s = roundUp(s, align)
	if s < MinBlock {
		s = MinBlock
	}
	return s
}

// Malloc returns a pointer to a payload of at least size usable bytes,
// or nil if size <= 0 or the heap cannot grow to satisfy the request.
func (a *Allocator) Malloc(size int) unsafe.Pointer {
	a.checkDebug("Malloc:enter")
	defer a.checkDebug("Malloc:exit")

	if size <= 0 {
		return nil
	}
	asize := adjustedSize(size)

	b, ok := a.findFit(asize)
	if !ok {
		grow := asize
		if uint64(a.ChunkSize) > grow {
			grow = uint64(a.ChunkSize)
		}
		nb, extended := a.extendHeap(grow)
		if !extended {
			return nil
		}
		b = nb
	}

	a.deleteNode(b)
	a.writeBlock(b, a.size(b), true)
	a.splitBlock(b, asize)
	a.stats.Allocs++
	return a.payloadOf(b)
}

// Free releases the block that p points to. Freeing nil is a no-op.
func (a *Allocator) Free(p unsafe.Pointer) {
	a.checkDebug("Free:enter")
	defer a.checkDebug("Free:exit")

	if p == nil {
		return
	}
	b := a.headerOf(p)
	a.writeBlock(b, a.size(b), false)
	a.coalesceBlock(b)
	a.stats.Frees++
	a.stats.Coalesces++
}

// Realloc resizes the allocation at p to size bytes, preserving the
// lesser of the old and new sizes worth of payload data. Realloc(nil,
// size) behaves like Malloc(size); Realloc(p, 0) behaves like Free(p)
// followed by returning nil. On allocation failure, the original block
// is left untouched and nil is returned.
func (a *Allocator) Realloc(p unsafe.Pointer, size int) unsafe.Pointer {
	if size == 0 {
		a.Free(p)
		return nil
	}
	if p == nil {
		return a.Malloc(size)
	}

	oldBlock := a.headerOf(p)
	oldPayload := a.size(oldBlock) - wordSize

	newP := a.Malloc(size)
	if newP == nil {
		return nil
	}

	n := oldPayload
	if uint64(size) < n {
		n = uint64(size)
	}
	if n > 0 {
		src := unsafe.Slice((*byte)(p), n)
		dst := unsafe.Slice((*byte)(newP), n)
		copy(dst, src)
	}
	a.Free(p)
	return newP
}

// Calloc allocates space for n elements of size bytes each and zeroes
// it. It returns nil if n*size overflows uintptr, or if either n or
// size is zero, or on allocation failure.
func (a *Allocator) Calloc(n, size uintptr) unsafe.Pointer {
	if n == 0 || size == 0 {
		return nil
	}
	total := n * size
	if total/size != n {
		return nil
	}

	p := a.Malloc(int(total))
	if p == nil {
		return nil
	}
	buf := unsafe.Slice((*byte)(p), total)
	for i := range buf {
		buf[i] = 0
	}
	return p
}

// Stats returns a snapshot of the allocator's counters.
func (a *Allocator) Stats() Stats {
	s := a.stats
	for c := 0; c < numClasses; c++ {
		n := uint64(0)
		for b := a.segList[c]; b != nilBlock; b = a.getNext(b) {
			n++
		}
		s.FreeByClass[c] = n
	}
	return s
}
