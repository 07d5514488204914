package alignment

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelFor splits [0, n) into contiguous chunks and runs f on each
// chunk in its own goroutine. Chunks never overlap, so f may write to
// per-index slots without locking.
func parallelFor(threads, n int, f func(lo, hi int) error) error {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads > n {
		threads = n
	}
	if threads <= 1 {
		return f(0, n)
	}
	chunk := (n + threads - 1) / threads
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			return f(lo, hi)
		})
	}
	return g.Wait()
}
