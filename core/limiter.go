package core

import (
	"fmt"
	"sync"
)

// ModelLimiter is the model call budget of one agent run. Once the budget is
// used, Increment returns ErrModelCallLimit instead of granting a call.
type ModelLimiter struct {
	mu     sync.Mutex
	budget int
	used   int
}

// NewModelLimiter returns a limiter allowing budget calls; 0 is unbounded.
func NewModelLimiter(budget int) *ModelLimiter {
	return &ModelLimiter{budget: budget}
}

// Increment claims one call. A refused call is not counted.
func (ml *ModelLimiter) Increment() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.budget > 0 && ml.used >= ml.budget {
		return fmt.Errorf("%w: %d calls used", ErrModelCallLimit, ml.used)
	}
	ml.used++
	return nil
}

// Count returns the calls granted so far.
func (ml *ModelLimiter) Count() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.used
}

// Remaining returns the calls left, or -1 for an unbounded run.
func (ml *ModelLimiter) Remaining() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.budget == 0 {
		return -1
	}
	return ml.budget - ml.used
}
