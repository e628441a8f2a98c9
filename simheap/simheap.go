// Package simheap provides the thin memory-simulator contract that
// segalloc.Allocator is driven through, plus one reference
// implementation backed by a growable, fixed-address slab.
//
// The simulator is explicitly out of scope for the allocator core
// itself; it exists so the core has something concrete to grow into
// during tests and examples, the same way a real allocator would sit
// on top of sbrk or mmap.
package simheap

import (
	"fmt"
	"unsafe"

	"github.com/segheap/segheap/cache/mempool"
)

// Accessor is the interface segalloc.Allocator consumes. Extend grows
// the heap by n bytes (n must be a positive multiple of 16) and
// returns the address of the first byte of the new region; it reports
// false if the simulated address space is exhausted. Lo and Hi report
// the current extent of the heap. Bytes exposes the raw backing memory
// from Lo() onward, for unsafe pointer arithmetic.
type Accessor interface {
	Extend(n int) (base uintptr, ok bool)
	Lo() uintptr
	Hi() uintptr
	Bytes() []byte
}

// Sim is a reference Accessor implementation. It reserves a fixed
// capacity up front (so the address returned by Extend never moves)
// and tracks how much of that capacity has been committed.
type Sim struct {
	slab []byte
	base unsafe.Pointer
	used int
}

// New reserves a simulated heap with room to grow up to capacity
// bytes. capacity is rounded up by the backing allocator to the next
// size class, exactly like a real virtual memory reservation is
// rounded up to a page boundary.
func New(capacity int) (*Sim, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("simheap: capacity must be positive, got %d", capacity)
	}
	buf := mempool.Malloc(capacity)
	buf = buf[:mempool.Cap(buf)]
	return &Sim{slab: buf, base: unsafe.Pointer(&buf[0])}, nil
}

// Close releases the backing slab. A Sim must not be used afterward.
func (s *Sim) Close() {
	mempool.Free(s.slab)
	s.slab = nil
	s.base = nil
	s.used = 0
}

// Extend implements Accessor.
func (s *Sim) Extend(n int) (uintptr, bool) {
	if n <= 0 || n%16 != 0 {
		panic("simheap: extend size must be a positive multiple of 16")
	}
	if s.used+n > len(s.slab) {
		return 0, false
	}
	base := uintptr(s.base) + uintptr(s.used)
	s.used += n
	return base, true
}

// Lo implements Accessor.
func (s *Sim) Lo() uintptr {
	return uintptr(s.base)
}

// Hi implements Accessor.
func (s *Sim) Hi() uintptr {
	return s.Lo() + uintptr(s.used)
}

// Bytes implements Accessor.
func (s *Sim) Bytes() []byte {
	return s.slab
}

// Capacity returns the maximum number of bytes this Sim can grow to
// without returning ok=false from Extend.
func (s *Sim) Capacity() int {
	return len(s.slab)
}

// Used returns the number of bytes currently committed.
func (s *Sim) Used() int {
	return s.used
}
