package intake

import "context"

// SolvePool bounds how many solves run concurrently, so the memory an
// in-progress search holds (routes, arrival times, the forbidden-vehicle
// matrix) stays proportional to a fixed concurrency cap rather than to the
// rate requests arrive at.
type SolvePool struct {
	slots chan struct{}
}

// NewSolvePool creates a pool allowing up to maxConcurrency solves at once.
// A non-positive value falls back to 10.
func NewSolvePool(maxConcurrency int) *SolvePool {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &SolvePool{slots: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is free or ctx is done.
func (p *SolvePool) Acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired by Acquire.
func (p *SolvePool) Release() {
	<-p.slots
}
