package nav

import "github.com/roach88/pantry/internal/state"

// SessionRestorer triggers an auto-login attempt from persisted state.
// Implemented by the effect pipeline; restoring with no persisted session,
// or while already authenticated, is harmless.
type SessionRestorer interface {
	RestoreSession()
}

// Verdict is the guard's decision for one navigation attempt.
type Verdict struct {
	Allowed  bool
	Redirect string // route to go to instead, set when not allowed
}

// Guard gates navigation on the session slice. It never fails: the answer
// is always allow or redirect.
type Guard struct {
	store    *state.Store
	restorer SessionRestorer
}

// NewGuard creates a guard over store, using restorer for the auto-login
// attempt that precedes every check.
func NewGuard(store *state.Store, restorer SessionRestorer) *Guard {
	return &Guard{store: store, restorer: restorer}
}

// Check runs the auto-login attempt, then reads the session slice once.
func (g *Guard) Check() Verdict {
	g.restorer.RestoreSession()

	if g.store.State().Session.Authenticated() {
		return Verdict{Allowed: true}
	}
	return Verdict{Redirect: RouteLogin}
}
