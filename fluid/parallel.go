package fluid

import (
	"runtime"
	"sync"
)

// parallelThreshold mirrors the reference corpus's own cutoff: below
// this count, goroutine dispatch overhead outweighs the win.
const parallelThreshold = 256

// parallelFor runs fn(lo, hi) once per contiguous chunk of [0, n),
// dividing the range across GOMAXPROCS goroutines and blocking until
// every chunk completes. This is the one-shot equivalent of the
// reference corpus's persistent worker pool: a diffuse-particle run
// dispatches a handful of passes per frame rather than sixty times a
// second, so there is nothing to gain from keeping workers parked
// between passes.
func parallelFor(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold {
		fn(0, n)
		return
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
