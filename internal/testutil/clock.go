package testutil

import (
	"sync"
	"time"
)

// ManualClock is a thread-safe wall clock under test control. Unlike
// time.Now it only moves when the test says so, which makes session-expiry
// math reproducible.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at now.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the current instant. Pass the method value where a clock
// function is expected: effects.WithNow(clock.Now).
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
