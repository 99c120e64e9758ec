package gopool

import (
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

var (
	// Init a instance pool when importing ants.
	defaultPool, _   = ants.NewPool(ants.DefaultAntsPoolSize, ants.WithExpiryDuration(10*time.Second))
	minNumberPerTask = 5
)

// Submit submits a task to pool.
func Submit(task func()) error {
	return defaultPool.Submit(task)
}

// Running returns the number of the currently running goroutines.
func Running() int {
	return defaultPool.Running()
}

// Threads returns the number of goroutines worth spawning for the given
// number of tasks, capped by the number of CPUs.
func Threads(tasks int) int {
	threads := tasks / minNumberPerTask
	if threads > runtime.NumCPU() {
		threads = runtime.NumCPU()
	} else if threads == 0 {
		threads = 1
	}
	return threads
}

// ParallelFor calls fn for every index in [0, n) and returns once all calls
// have finished. The range is split into Threads(n) contiguous chunks that run
// on the pool; a chunk the pool refuses runs on the calling goroutine.
func ParallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	threads := Threads(n)
	if threads == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var (
		wg    sync.WaitGroup
		chunk = (n + threads - 1) / threads
	)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		run := func(start, end int) func() {
			return func() {
				defer wg.Done()
				for i := start; i < end; i++ {
					fn(i)
				}
			}
		}(start, end)

		wg.Add(1)
		if err := Submit(run); err != nil {
			run()
		}
	}
	wg.Wait()
}
