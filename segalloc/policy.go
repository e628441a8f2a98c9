package segalloc

// maxImprovements bounds how many times the better-fit search may find a
// smaller candidate within a single size class before it returns the
// best one seen so far. Candidates that do not improve on the best are
// not counted, so one class scan can still visit every block it holds.
const maxImprovements = 5

// findFit locates a free block able to hold asize bytes. Classes 0..4
// use strict first-fit; classes 5..14 use bounded better-fit, with an
// exact-size match always short-circuiting the search immediately. A
// small request that finds nothing in classes k..4 continues into the
// better-fit scan of classes 5..14.
func (a *Allocator) findFit(asize uint64) (block, bool) {
	k := segIndex(asize)

	if k <= 4 {
		for c := k; c <= 4; c++ {
			for b := a.segList[c]; b != nilBlock; b = a.getNext(b) {
				if a.size(b) >= asize {
					return b, true
				}
			}
		}
		k = 5
	}

	var best block
	var bestSize uint64
	for c := k; c <= numClasses-1; c++ {
		improvements := 0
		for b := a.segList[c]; b != nilBlock; b = a.getNext(b) {
			sz := a.size(b)
			if sz < asize {
				continue
			}
			if sz == asize {
				return b, true
			}
			if best == nilBlock || sz < bestSize {
				best = b
				bestSize = sz
				improvements++
				if improvements >= maxImprovements {
					return best, true
				}
			}
		}
	}
	if best != nilBlock {
		return best, true
	}
	return nilBlock, false
}

// splitBlock shrinks the allocated block b to asize bytes and, if the
// remainder is at least MinBlock, carves it off as a new free block
// and inserts it into the free list. b must already be marked
// allocated with its original (pre-split) size.
func (a *Allocator) splitBlock(b block, asize uint64) {
	total := a.size(b)
	remainder := total - asize
	if remainder < MinBlock {
		return
	}
	a.writeBlock(b, asize, true)
	tail := block(uintptr(b) + uintptr(asize))
	a.writeBlock(tail, remainder, false)
	a.addNode(tail)
}
