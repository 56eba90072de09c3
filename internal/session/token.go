package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the exp claim from a bearer id token without
// verifying the signature. The engine never validates tokens locally - the
// remote store does that on every request - but the claim is a usable
// fallback expiry when the persisted blob lost its own.
func TokenExpiry(token string) (time.Time, bool) {
	claims, err := TokenClaims(token)
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenClaims parses the token's claims without signature verification.
func TokenClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
