package nav_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pantry/internal/model"
	"github.com/roach88/pantry/internal/nav"
	"github.com/roach88/pantry/internal/state"
)

// restorerFunc lets a test inject the auto-login behavior.
type restorerFunc func()

func (f restorerFunc) RestoreSession() { f() }

func TestGuard_AllowsAuthenticatedSession(t *testing.T) {
	store := state.NewStore()
	defer store.Close()
	store.Dispatch(state.Login{Session: model.Session{
		UserID:    "U1",
		Token:     "T",
		ExpiresAt: time.Now().Add(time.Hour),
	}})

	calls := 0
	g := nav.NewGuard(store, restorerFunc(func() { calls++ }))

	v := g.Check()
	assert.True(t, v.Allowed)
	assert.Empty(t, v.Redirect)
	assert.Equal(t, 1, calls, "every check attempts a restore first")
}

func TestGuard_RedirectsWithoutSession(t *testing.T) {
	store := state.NewStore()
	defer store.Close()

	g := nav.NewGuard(store, restorerFunc(func() {}))

	v := g.Check()
	assert.False(t, v.Allowed)
	assert.Equal(t, nav.RouteLogin, v.Redirect)
}

func TestGuard_SeesSessionInstalledByRestore(t *testing.T) {
	store := state.NewStore()
	defer store.Close()

	// The restorer dispatches synchronously, like the pipeline's
	// RestoreSession, so the guard's read observes it.
	g := nav.NewGuard(store, restorerFunc(func() {
		store.Dispatch(state.Login{Session: model.Session{
			UserID:    "U1",
			Token:     "T",
			ExpiresAt: time.Now().Add(time.Hour),
		}})
	}))

	v := g.Check()
	assert.True(t, v.Allowed)
}

func TestGuard_RedirectsAfterExpiredRestore(t *testing.T) {
	store := state.NewStore()
	defer store.Close()

	g := nav.NewGuard(store, restorerFunc(func() {
		store.Dispatch(state.Logout{})
	}))

	v := g.Check()
	assert.False(t, v.Allowed)
	assert.Equal(t, nav.RouteLogin, v.Redirect)
}
