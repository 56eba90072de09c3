package model

import "time"

// Session is an authenticated user session.
//
// INVARIANT: a non-empty Token means the holder is authenticated, and
// ExpiresAt is in the future at the moment the session is created or
// refreshed.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Authenticated reports whether the session carries a bearer token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Expired reports whether the session's token has expired as of now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Remaining returns the time left until expiry. Negative when expired.
func (s Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}
