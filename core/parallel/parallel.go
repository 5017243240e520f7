// Package parallel splits row-oriented work across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count below which ForRows stays sequential.
const DefaultThreshold = 1000

// Parallelize splits [0, items) into one contiguous range per worker and
// calls fn on each range concurrently. It returns once every range is done.
// fn must only write to state owned by its own range.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := min(start+chunkSize, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over [0, items) when items
// does not exceed threshold, and through Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForRows calls fn once per row index, in parallel for large inputs.
func ForRows(rows int, fn func(i int)) {
	ParallelizeWithThreshold(rows, DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
