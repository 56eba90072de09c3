package effects

import (
	"context"
	"log/slog"

	"github.com/roach88/pantry/internal/model"
	"github.com/roach88/pantry/internal/remote"
	"github.com/roach88/pantry/internal/state"
)

// unknownAuthMessage is the fallback for transport failures and server
// codes outside the taxonomy.
const unknownAuthMessage = "An unknown error occurred!"

// authMessage maps a failed auth call to its user-facing message.
func authMessage(err error) string {
	ae, ok := remote.AsAuthError(err)
	if !ok {
		return unknownAuthMessage
	}
	switch ae.Code {
	case "EMAIL_EXISTS":
		return "This Email already exists."
	case "EMAIL_NOT_FOUND":
		return "There is no user record corresponding to this identifier. The user may have been deleted."
	case "INVALID_PASSWORD":
		return "The password is invalid"
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return "We have blocked all requests from this device due to unusual activity. Try again later."
	}
	return unknownAuthMessage
}

// authenticate runs a login or signup round-trip. Switch-to-latest within
// the stream: if a newer attempt of the same kind starts before this one
// finishes, this result is discarded.
func (p *Pipeline) authenticate(ctx context.Context, email, password string, signup bool) {
	stream := &p.loginGen
	if signup {
		stream = &p.signupGen
	}
	gen := stream.Add(1)
	p.go1(func() {
		var res remote.AuthResponse
		var err error
		if signup {
			res, err = p.client.SignUp(ctx, email, password)
		} else {
			res, err = p.client.SignIn(ctx, email, password)
		}

		if gen != stream.Load() {
			slog.Debug("auth attempt superseded", "gen", gen)
			return
		}
		if err != nil {
			slog.Warn("authentication failed", "signup", signup, "error", err)
			p.store.Dispatch(state.LoginFail{Message: authMessage(err)})
			return
		}
		p.completeLogin(res)
	})
}

// completeLogin turns a successful auth response into a session: persist
// the blob, dispatch a redirecting Login, arm the expiry timer.
func (p *Pipeline) completeLogin(res remote.AuthResponse) {
	ttl, err := res.ExpiresInDuration()
	if err != nil {
		slog.Error("malformed auth response", "error", err)
		p.store.Dispatch(state.LoginFail{Message: unknownAuthMessage})
		return
	}

	sess := model.Session{
		UserID:    res.LocalID,
		Email:     res.Email,
		Token:     res.IDToken,
		ExpiresAt: p.now().Add(ttl),
	}

	if err := p.storage.Save(sess); err != nil {
		// The in-memory session still works; only auto-login suffers.
		slog.Error("persisting session failed", "error", err)
	}

	slog.Info("authenticated", "user", sess.UserID, "expires_in", ttl)
	p.store.Dispatch(state.Login{Session: sess, Redirect: true})
	// Armed after the dispatch so an already-due expiry logs out the
	// session it just installed instead of racing it.
	p.timer.Schedule(ttl)
}

// RestoreSession reloads a persisted session, if any. Absent blob or empty
// token: nothing happens. Expired: immediate logout, which also clears the
// stale blob. Valid: the timer is re-armed for the remaining duration and a
// non-redirecting Login is dispatched.
//
// Idempotent and safe to call concurrently; the guard calls it on every
// navigation attempt.
func (p *Pipeline) RestoreSession() {
	sess, ok, err := p.storage.Load()
	if err != nil {
		slog.Error("loading persisted session failed", "error", err)
		return
	}
	if !ok || sess.Token == "" {
		return
	}

	remaining := sess.Remaining(p.now())
	if remaining <= 0 {
		slog.Info("persisted session expired", "user", sess.UserID)
		p.store.Dispatch(state.Logout{})
		return
	}

	slog.Debug("session restored", "user", sess.UserID, "remaining", remaining)
	p.store.Dispatch(state.Login{Session: sess, Redirect: false})
	p.timer.Schedule(remaining)
}
