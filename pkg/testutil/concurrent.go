// Package testutil holds shared fixtures and helpers for package tests.
package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "kickoff/pkg/domain-errors"
)

// ConcurrentResult counts how concurrent calls ended. Unavailable counts
// errors carrying dErrors.CodeUnavailable (circuit open).
type ConcurrentResult struct {
	Successes   int32
	Errors      int32
	Unavailable int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Unavailable
}

// RunConcurrent calls fn from n goroutines released at the same moment and
// waits for all of them.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	start := make(chan struct{})
	var wg sync.WaitGroup
	var successes, errs, unavailable atomic.Int32

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			switch err := fn(i); {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeUnavailable):
				unavailable.Add(1)
			default:
				errs.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes:   successes.Load(),
		Errors:      errs.Load(),
		Unavailable: unavailable.Load(),
	}
}
