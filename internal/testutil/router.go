// Package testutil provides deterministic collaborators for tests: a
// recording router, a manual clock, and a scripted remote backend.
package testutil

import "sync"

// RecordingRouter captures navigation side effects for assertions.
//
// Thread-safe: effects navigate from the pipeline goroutine while tests
// read from their own.
type RecordingRouter struct {
	mu     sync.Mutex
	routes []string
}

// Navigate records the route.
func (r *RecordingRouter) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// Routes returns a copy of the recorded routes in order.
func (r *RecordingRouter) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

// Last returns the most recent route, or "" when nothing was recorded.
func (r *RecordingRouter) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}
