// Package parallel splits CPU kernel loops across goroutines.
//
// Callers of the tensor API never see it: a Forward call still returns only
// once every chunk has finished.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Config controls how loops are split.
type Config struct {
	Workers  int // Number of goroutines; <= 1 runs inline.
	MinChunk int // Minimum iterations per goroutine.
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		MinChunk: 16,
	}
}

var current atomic.Pointer[Config]

func init() {
	cfg := DefaultConfig()
	current.Store(&cfg)
}

// SetConfig replaces the configuration used by For and ForRange.
func SetConfig(cfg Config) {
	current.Store(&cfg)
}

// Current returns the active configuration.
func Current() Config {
	return *current.Load()
}

// ForRange calls f on disjoint [lo, hi) chunks covering [0, n).
func ForRange(n int, f func(lo, hi int)) {
	ForRangeWith(Current(), n, f)
}

// ForRangeWith is ForRange with an explicit configuration.
func ForRangeWith(cfg Config, n int, f func(lo, hi int)) {
	if n <= 0 {
		return
	}
	minChunk := max(cfg.MinChunk, 1)
	if cfg.Workers <= 1 || n < 2*minChunk {
		f(0, n)
		return
	}

	chunk := max((n+cfg.Workers-1)/cfg.Workers, minChunk)

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// For calls f(i) for every i in [0, n).
func For(n int, f func(i int)) {
	ForRange(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f(i)
		}
	})
}
