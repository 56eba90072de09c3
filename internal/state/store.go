package state

import (
	"context"
	"log/slog"
	"sync"
)

// Change is one applied transition together with the state it produced.
// Every subscriber observes the same sequence of changes in the same order.
type Change struct {
	Seq        int64
	Transition Transition
	State      AppState
}

// Store is the composition root: it owns the current AppState, applies
// dispatched transitions synchronously through the reducers, and broadcasts
// each change to registered subscribers.
//
// Thread-safety model:
//   - Dispatch: safe from any goroutine, serialized by the store mutex
//   - State: safe from any goroutine, returns the current snapshot
//   - Subscribe/Close: safe from any goroutine
//
// There is no ambient global store; collaborators receive a *Store handle.
type Store struct {
	mu      sync.Mutex
	seq     int64
	state   AppState
	subs    map[int]*Subscription
	nextSub int
	closed  bool
}

// NewStore creates a store with empty slices.
func NewStore() *Store {
	return &Store{subs: make(map[int]*Subscription)}
}

// State returns the current state snapshot. The contained slices are
// immutable values; callers must not modify them.
func (s *Store) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a transition atomically and broadcasts the resulting
// change. Reduction happens synchronously: when Dispatch returns, the new
// state is installed and queued for every subscriber.
//
// Dispatching after Close is a logged no-op returning the last state.
func (s *Store) Dispatch(t Transition) Change {
	s.mu.Lock()
	if s.closed {
		c := Change{Seq: s.seq, State: s.state, Transition: t}
		s.mu.Unlock()
		slog.Warn("dispatch on closed store", "transition", t.Name())
		return c
	}

	s.seq++
	s.state = reduce(s.state, t)
	c := Change{Seq: s.seq, Transition: t, State: s.state}
	for _, sub := range s.subs {
		sub.queue.enqueue(c)
	}
	s.mu.Unlock()

	slog.Debug("transition applied", "transition", t.Name(), "seq", c.Seq)
	return c
}

// Subscribe registers a listener for all subsequent changes. The caller
// must eventually call Close on the subscription to detach.
func (s *Store) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	sub := &Subscription{id: s.nextSub, store: s, queue: newChangeQueue()}
	if s.closed {
		sub.queue.close()
		return sub
	}
	s.subs[sub.id] = sub
	return sub
}

// Close stops dispatching and closes every subscription. Subscribers drain
// their remaining queued changes and then see the stream end.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.queue.close()
	}
}

func (s *Store) unsubscribe(id int) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}

// Subscription is one listener's view of the change stream.
//
// Detaching stops delivery of further changes but does not cancel any
// in-flight remote call a subscriber may have started; a late result lands
// in the store as a redundant set.
type Subscription struct {
	id    int
	store *Store
	queue *changeQueue
}

// Next blocks until a change is available, the context is cancelled, or the
// stream ends. Returns false when no more changes will be delivered.
func (sub *Subscription) Next(ctx context.Context) (Change, bool) {
	for {
		if c, ok := sub.queue.tryDequeue(); ok {
			return c, true
		}
		if sub.queue.drained() {
			return Change{}, false
		}
		select {
		case <-ctx.Done():
			return Change{}, false
		case <-sub.queue.wait():
		}
	}
}

// TryNext returns the next queued change without blocking.
func (sub *Subscription) TryNext() (Change, bool) {
	return sub.queue.tryDequeue()
}

// Pending returns the number of undelivered changes.
func (sub *Subscription) Pending() int {
	return sub.queue.len()
}

// Close detaches the subscription from the store.
func (sub *Subscription) Close() {
	sub.store.unsubscribe(sub.id)
	sub.queue.close()
}
