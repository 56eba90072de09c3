package state

import "sync"

// changeQueue is a thread-safe FIFO queue of applied changes, one per
// subscription.
//
// The queue is unbounded so a slow subscriber never blocks Dispatch; the
// store fans out under its own mutex and must not stall on a full channel.
//
// A buffered signal channel (size 1) coalesces wake-ups and lets waiters
// select against context cancellation.
type changeQueue struct {
	mu      sync.Mutex
	changes []Change
	closed  bool
	signal  chan struct{}
}

func newChangeQueue() *changeQueue {
	return &changeQueue{
		changes: make([]Change, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// enqueue adds a change to the back of the queue.
// Returns false if the queue is closed.
func (q *changeQueue) enqueue(c Change) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.changes = append(q.changes, c)

	// Non-blocking: a pending signal already covers this change.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// tryDequeue removes and returns the front change without blocking.
func (q *changeQueue) tryDequeue() (Change, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.changes) == 0 {
		return Change{}, false
	}

	c := q.changes[0]

	// Zero the slot so the retained array does not pin the Transition.
	q.changes[0] = Change{}
	if len(q.changes) == 1 {
		q.changes = q.changes[:0]
	} else {
		q.changes = q.changes[1:]
	}

	return c, true
}

// wait returns a channel that signals when changes may be available. The
// channel is closed when the queue closes, so waiters always wake.
func (q *changeQueue) wait() <-chan struct{} {
	return q.signal
}

// drained reports whether the queue is closed and empty.
func (q *changeQueue) drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.changes) == 0
}

func (q *changeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.changes)
}

// close stops further enqueues and wakes all waiters. Queued changes remain
// dequeueable so subscribers can drain before detaching.
func (q *changeQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
