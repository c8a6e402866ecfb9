// Package parallel provides bounded fork-join helpers for bulk-synchronous
// parallel regions. Blocks is used by the data-partition split and by
// feature.Build's row mapping and push; the tree learner's per-feature
// histogram construction and its gradient reordering run serially and do
// not use this package. No goroutine spawned here outlives the call that
// spawned it.
package parallel

import (
	"runtime"
	"sync"
)

// For runs fn(i) for i in [0, n) across a bounded worker pool and blocks
// until every call returns. Determinism of the computation itself must come
// from fn writing to disjoint memory per i; For only provides the join
// barrier, not an ordering guarantee on completion time.
func For(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	var next int64ctr
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := next.inc()
				if i >= n {
					return
				}
				fn(i)
			}
		}()
	}
	wg.Wait()
}

// int64ctr is a tiny atomic counter used to hand out work indices.
type int64ctr struct {
	mu sync.Mutex
	v  int
}

func (c *int64ctr) inc() int {
	c.mu.Lock()
	v := c.v
	c.v++
	c.mu.Unlock()
	return v
}

// Blocks partitions [0, n) into up to `parts` contiguous, near-equal blocks
// and calls fn(start, end) for each block concurrently, joining at the end.
// Used by DataPartition.Split's two-pass (count, then scatter) scheme.
func Blocks(n, parts int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts

	var wg sync.WaitGroup
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
