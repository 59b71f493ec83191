// Package testutil holds shared helpers for deterministic tests.
package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a thread-safe test clock. Each call to Now advances
// the reported time by a fixed step, so timestamps and durations in test
// output are stable across runs.
type DeterministicClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewDeterministicClock creates a clock starting at start, advancing by step
// on every Now call. A zero step freezes the clock.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{now: start, step: step}
}

// Now returns the current time and advances the clock by the configured
// step for the next call.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Set repositions the clock, for test reuse.
func (c *DeterministicClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
