package segalloc_test

import (
	"fmt"

	"github.com/segheap/segheap/segalloc"
	"github.com/segheap/segheap/simheap"
)

func Example() {
	sim, err := simheap.New(64 * 1024)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer sim.Close()

	a, err := segalloc.NewAllocator(sim)
	if err != nil {
		fmt.Println(err)
		return
	}

	p := a.Malloc(100)
	fmt.Println(p != nil)

	a.Free(p)

	stats := a.Stats()
	fmt.Println(stats.Allocs, stats.Frees)

	// Output:
	// true
	// 1 1
}
