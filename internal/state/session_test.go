package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pantry/internal/model"
)

func TestReduceSession_LoginInstallsSession(t *testing.T) {
	s := SessionState{Error: "bad password", Loading: true}
	sess := model.Session{
		UserID:    "U1",
		Email:     "a@b.com",
		Token:     "T",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	got := reduceSession(s, Login{Session: sess, Redirect: true})

	require.NotNil(t, got.Session)
	assert.Equal(t, sess, *got.Session)
	assert.Empty(t, got.Error)
	assert.False(t, got.Loading)
	assert.True(t, got.Authenticated())
}

func TestReduceSession_LogoutClearsSessionOnly(t *testing.T) {
	sess := model.Session{UserID: "U1", Token: "T"}
	s := SessionState{Session: &sess, Error: "stale", Loading: true}

	got := reduceSession(s, Logout{})

	assert.Nil(t, got.Session)
	assert.Equal(t, "stale", got.Error)
	assert.False(t, got.Authenticated())
}

func TestReduceSession_StartSetsLoadingClearsError(t *testing.T) {
	for _, tr := range []Transition{
		LoginStart{Email: "a@b.com", Password: "secret"},
		SignupStart{Email: "a@b.com", Password: "secret"},
	} {
		got := reduceSession(SessionState{Error: "old"}, tr)
		assert.True(t, got.Loading, tr.Name())
		assert.Empty(t, got.Error, tr.Name())
	}
}

func TestReduceSession_LoginFail(t *testing.T) {
	sess := model.Session{UserID: "U1", Token: "T"}
	s := SessionState{Session: &sess, Loading: true}

	got := reduceSession(s, LoginFail{Message: "The password is invalid"})

	assert.Nil(t, got.Session)
	assert.Equal(t, "The password is invalid", got.Error)
	assert.False(t, got.Loading)
}

func TestReduceSession_UnknownTransitionIsNoop(t *testing.T) {
	sess := model.Session{UserID: "U1", Token: "T"}
	s := SessionState{Session: &sess}

	got := reduceSession(s, FetchShoppingList{})

	assert.Same(t, s.Session, got.Session)
	assert.Equal(t, s, got)
}
