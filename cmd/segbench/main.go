// Command segbench drives N independent segalloc.Allocator instances,
// each over its own simheap.Sim, fanned out across goroutines purely
// to produce an aggregate throughput number. Each individual Allocator
// is still only ever touched by one goroutine: this does not exercise
// concurrent access to a shared heap, which remains out of scope.
package main

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/bytedance/gopkg/lang/fastrand"

	"github.com/segheap/segheap/concurrency/gopool"
	"github.com/segheap/segheap/internal/heaptrace"
	"github.com/segheap/segheap/segalloc"
	"github.com/segheap/segheap/simheap"
)

const (
	baseWorkers  = 4
	jitterRange  = 4
	opsPerWorker = 20000
	heapCapacity = 4 << 20
	maxOpSize    = 512
)

func main() {
	workers := baseWorkers + int(fastrand.Uint32())%jitterRange

	var wg sync.WaitGroup
	var totalAllocs, totalFrees uint64

	start := time.Now()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		id := i
		gopool.Go(func() {
			defer wg.Done()
			allocs, frees, err := runWorker(id)
			if err != nil {
				log.Printf("segbench: worker %d failed: %v", id, err)
				return
			}
			atomic.AddUint64(&totalAllocs, allocs)
			atomic.AddUint64(&totalFrees, frees)
		})
	}
	wg.Wait()

	elapsed := time.Since(start)
	log.Printf("segbench: %d workers, %d allocs, %d frees, %s elapsed",
		workers, totalAllocs, totalFrees, elapsed)
}

func runWorker(id int) (allocs, frees uint64, err error) {
	sim, err := simheap.New(heapCapacity)
	if err != nil {
		return 0, 0, err
	}
	defer sim.Close()

	a, err := segalloc.NewAllocator(sim)
	if err != nil {
		return 0, 0, err
	}

	gen := heaptrace.NewGenerator(workerName(id))
	live := make([]uintptrHandle, 0, 256)

	for i := 0; i < opsPerWorker; i++ {
		op := gen.Next(maxOpSize, len(live))
		switch op.Kind {
		case heaptrace.OpMalloc:
			if p := a.Malloc(op.Size); p != nil {
				live = append(live, uintptrHandle{p: p})
				allocs++
			}
		case heaptrace.OpFree:
			if len(live) == 0 {
				continue
			}
			idx := op.Target % len(live)
			a.Free(live[idx].p)
			live = append(live[:idx], live[idx+1:]...)
			frees++
		case heaptrace.OpRealloc:
			if len(live) == 0 {
				continue
			}
			idx := op.Target % len(live)
			if p := a.Realloc(live[idx].p, op.Size); p != nil {
				live[idx].p = p
			}
		}
	}

	for _, h := range live {
		a.Free(h.p)
		frees++
	}
	return allocs, frees, nil
}

func workerName(id int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "segbench-worker-" + string(rune(letters[id%len(letters)]))
}

type uintptrHandle struct {
	p unsafe.Pointer
}
