// Package session owns the session-expiry timer and the persisted local
// session (the durable blob read on auto-login).
package session

import (
	"sync"
	"time"
)

// Timer arms a single deferred callback that fires when the session
// expires. No periodic re-checking: purely single-shot deferred execution.
//
// Schedule implicitly cancels any previously armed timer; Cancel
// deterministically prevents an armed callback from firing. A generation
// counter closes the window where time.AfterFunc runs after Stop returned
// false.
type Timer struct {
	mu       sync.Mutex
	gen      uint64
	timer    *time.Timer
	onExpire func()
}

// NewTimer creates a timer that invokes onExpire when it fires. The
// composition root passes a closure dispatching Logout.
func NewTimer(onExpire func()) *Timer {
	return &Timer{onExpire: onExpire}
}

// Schedule arms the timer to fire after d, replacing any armed timer.
// A non-positive duration fires immediately (still asynchronously).
func (t *Timer) Schedule(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(d, func() { t.fire(gen) })
}

// Cancel prevents an armed callback from firing. Safe to call when nothing
// is armed or after the timer already fired.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Armed reports whether a callback is currently scheduled.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	live := gen == t.gen
	if live {
		t.timer = nil
	}
	t.mu.Unlock()

	if live {
		t.onExpire()
	}
}
