/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package gopool provides a small worker pool for fire-and-forget
// background goroutines, recovering panics so one failed task can't
// crash the caller.
//
// This module only ever needs that one entry point (cmd/segbench fans
// independent allocator workloads out across goroutines with it), so
// the configurable variant, the context-aware variant, and worker
// introspection are not exposed here — just Go.
package gopool

import (
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"
)

const (
	maxIdleWorkers = 1000
	workerMaxAge   = time.Minute
	taskChanBuffer = 1000
)

var defaultPool = newPool()

// Go runs f in a pooled background goroutine. A panic inside f is
// recovered and logged via log.Printf rather than crashing the caller.
func Go(f func()) {
	defaultPool.go_(f)
}

type pool struct {
	workers   int32
	tasks     chan func()
	unixMilli int64
}

func newPool() *pool {
	return &pool{tasks: make(chan func(), taskChanBuffer)}
}

func (p *pool) go_(f func()) {
	select {
	case p.tasks <- f:
	default:
		// full? fall back to use go directly
		go p.runTask(f)
		return
	}
	// luckily ... it's true when there're many workers.
	if len(p.tasks) == 0 {
		return
	}
	// all workers busy, create a new one
	go p.runWorker()
}

func (p *pool) runTask(f func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("GOPOOL: panic in pool: %v: %s", r, debug.Stack())
		}
	}()
	f()
}

func (p *pool) runWorker() {
	id := atomic.AddInt32(&p.workers, 1)
	defer atomic.AddInt32(&p.workers, -1)

	if id > maxIdleWorkers {
		// drain task chan and exit without waiting
		for {
			select {
			case f := <-p.tasks:
				p.runTask(f)
			default:
				return
			}
		}
	}

	createdAt := time.Now().UnixMilli() // for checking maxage
	for f := range p.tasks {
		p.runTask(f)

		now := atomic.LoadInt64(&p.unixMilli)

		// check if ticker is NOT alive
		// p.unixMilli will be set to zero if it's not running
		if now == 0 {
			// cas and create a new ticker
			now = time.Now().UnixMilli()
			if atomic.CompareAndSwapInt64(&p.unixMilli, 0, now) {
				go p.runTicker()
			}
		}

		// check maxage
		if now-createdAt > workerMaxAge.Milliseconds() {
			return
		}
	}
}

// noopTask is used by runTicker() to wake up workers and check their age.
var noopTask = func() {}

func (p *pool) runTicker() {
	// mark it zero to trigger ticker to be created when we have active workers
	defer atomic.StoreInt64(&p.unixMilli, 0)

	// updates unixMilli and sends ~100 noop tasks over workerMaxAge, so
	// workers notice their age without a dedicated per-worker timer.
	d := workerMaxAge / 100
	if d < time.Millisecond {
		d = time.Millisecond
	}

	t := time.NewTicker(d)
	defer t.Stop()

	for now := range t.C {
		if atomic.LoadInt32(&p.workers) == 0 {
			return
		}
		atomic.StoreInt64(&p.unixMilli, now.UnixMilli())
		p.tasks <- noopTask
	}
}
