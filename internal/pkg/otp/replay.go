package otp

import "go.uber.org/atomic"

// Cursor is an in-memory replay cursor: a monotonic high-water mark of the
// last accepted time step. It only ever moves forward.
type Cursor struct {
	step atomic.Int64
}

// NewCursor returns a cursor positioned at the given step.
func NewCursor(step int64) *Cursor {
	c := &Cursor{}
	c.step.Store(step)

	return c
}

// Load returns the current high-water mark.
func (c *Cursor) Load() int64 {
	return c.step.Load()
}

// Advance moves the cursor to step if step is strictly greater than the
// current value. It reports whether the cursor moved. Concurrent callers
// racing on the same step see exactly one winner.
func (c *Cursor) Advance(step int64) bool {
	for {
		current := c.step.Load()
		if step <= current {
			return false
		}

		if c.step.CompareAndSwap(current, step) {
			return true
		}
	}
}
