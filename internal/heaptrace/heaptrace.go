// Package heaptrace generates deterministic, reproducible sequences of
// allocator operations for property-based tests. It is test tooling
// only: it never inspects or corrects allocator state, leaving that to
// segalloc's own consistency checker.
package heaptrace

import (
	"math/rand"

	"github.com/segheap/segheap/hash/xfnv"
)

// OpKind identifies which allocator entry point an Op exercises.
type OpKind int

const (
	OpMalloc OpKind = iota
	OpFree
	OpRealloc
)

// Op is one step of a generated trace. Size is meaningful for Malloc
// and Realloc; Target indexes a previously-allocated slot for Free and
// Realloc (mod the number of live allocations at generation time).
type Op struct {
	Kind   OpKind
	Size   int
	Target int
}

// Generator produces a deterministic sequence of Ops from a seed
// derived from a name, so the same name always reproduces the same
// trace across runs. fastrand (the corpus's usual source of fast
// randomness) has no seeding API, so a name-seeded math/rand.Rand is
// used here instead, purely for reproducibility.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds a Generator from name, via xfnv so the same name
// always yields the same trace.
func NewGenerator(name string) *Generator {
	seed := int64(xfnv.HashStr(name))
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Next produces the next Op. maxSize bounds generated Malloc/Realloc
// sizes; liveCount is the number of currently-live allocations, used
// to keep Free/Realloc targets in range (liveCount == 0 forces Malloc).
func (g *Generator) Next(maxSize, liveCount int) Op {
	if liveCount == 0 {
		return Op{Kind: OpMalloc, Size: g.size(maxSize)}
	}

	switch g.rng.Intn(3) {
	case 0:
		return Op{Kind: OpMalloc, Size: g.size(maxSize)}
	case 1:
		return Op{Kind: OpFree, Target: g.rng.Intn(liveCount)}
	default:
		return Op{Kind: OpRealloc, Size: g.size(maxSize), Target: g.rng.Intn(liveCount)}
	}
}

func (g *Generator) size(maxSize int) int {
	if maxSize <= 0 {
		return 1
	}
	return 1 + g.rng.Intn(maxSize)
}
