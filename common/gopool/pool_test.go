package gopool

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThreads(t *testing.T) {
	require.Equal(t, 1, Threads(0))
	require.Equal(t, 1, Threads(minNumberPerTask-1))
	require.LessOrEqual(t, Threads(1<<20), runtime.NumCPU())
}

func TestParallelForVisitsEveryIndexOnce(t *testing.T) {
	for _, n := range []int{0, 1, 4, 5, 37, 1000} {
		visits := make([]int32, n)
		ParallelFor(n, func(i int) {
			atomic.AddInt32(&visits[i], 1)
		})
		for i, v := range visits {
			if v != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, v)
			}
		}
	}
}
