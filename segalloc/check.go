package segalloc

import "fmt"

// checkDebug runs CheckHeap and panics on the first violation found,
// but only when a.Debug is set. It is called from the entry and exit
// of Malloc and Free (and so, through them, from Realloc and Calloc)
// and has zero effect otherwise.
func (a *Allocator) checkDebug(caller string) {
	if !a.Debug {
		return
	}
	if err := a.CheckHeap(caller); err != nil {
		panic(fmt.Sprintf("segalloc: %s: %v", caller, err))
	}
}

// CheckHeap walks the whole heap and every free list, returning the
// first invariant violation found, or nil if the heap is consistent.
// It is never called from non-debug code paths; its cost is
// proportional to heap size and free-list population.
func (a *Allocator) CheckHeap(caller string) error {
	if err := a.checkBlocks(); err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	if err := a.checkLists(); err != nil {
		return fmt.Errorf("%s: %w", caller, err)
	}
	return nil
}

func (a *Allocator) checkBlocks() error {
	if hdr := a.header(0); extractSize(hdr) != 0 || !extractAlloc(hdr) {
		return fmt.Errorf("prologue corrupted: header=%#x", hdr)
	}

	prevWasAlloc := true
	for b := block(wordSize); b != a.epilogue; {
		sz := a.size(b)
		if sz == 0 {
			return fmt.Errorf("zero-size block at offset %d before epilogue", uintptr(b))
		}
		if sz%align != 0 {
			return fmt.Errorf("misaligned block size %d at offset %d", sz, uintptr(b))
		}
		if uintptr(b)+uintptr(sz) > uintptr(a.epilogue) {
			return fmt.Errorf("block at offset %d overruns heap", uintptr(b))
		}
		if a.isPrevAlloc(b) != prevWasAlloc {
			return fmt.Errorf("PREV_ALLOC mismatch at offset %d", uintptr(b))
		}
		alloc := a.isAlloc(b)
		if !alloc && !prevWasAlloc {
			return fmt.Errorf("two adjacent free blocks at offset %d", uintptr(b))
		}
		if !alloc && sz > MinBlock {
			hdrWord := a.header(b)
			ftrWord := a.wordAt(a.footerOff(b, sz))
			if hdrWord != ftrWord {
				return fmt.Errorf("header/footer mismatch at offset %d", uintptr(b))
			}
		}
		prevWasAlloc = alloc
		b = a.findNext(b)
	}

	hdr := a.header(a.epilogue)
	if extractSize(hdr) != 0 || !extractAlloc(hdr) {
		return fmt.Errorf("epilogue corrupted: header=%#x", hdr)
	}
	if extractPrevAlloc(hdr) != prevWasAlloc {
		return fmt.Errorf("epilogue PREV_ALLOC stale")
	}
	return nil
}

func (a *Allocator) checkLists() error {
	for c := 0; c < numClasses; c++ {
		seen := make(map[block]bool)
		var prev block
		for b := a.segList[c]; b != nilBlock; b = a.getNext(b) {
			if seen[b] {
				return fmt.Errorf("cycle detected in free list class %d", c)
			}
			seen[b] = true

			if a.isAlloc(b) {
				return fmt.Errorf("allocated block %d found in free list class %d", uintptr(b), c)
			}
			if got := segIndex(a.size(b)); got != c {
				return fmt.Errorf("block %d of size %d misfiled in class %d (wants %d)", uintptr(b), a.size(b), c, got)
			}
			if c != 0 {
				if a.getPrev(b) != prev {
					return fmt.Errorf("broken back-pointer at block %d in class %d", uintptr(b), c)
				}
			}
			prev = b
		}
	}
	return nil
}
