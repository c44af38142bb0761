package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reports the exp claim of a JWT auth token. The signature is not
// verified: the server remains the authority, this only lets the client skip
// requests it already knows will be rejected. Opaque tokens return ok=false.
func TokenExpiry(token string) (expiry time.Time, ok bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// TokenExpired reports whether token is a JWT whose exp claim is before now
func TokenExpired(token string, now time.Time) bool {
	expiry, ok := TokenExpiry(token)
	return ok && !now.Before(expiry)
}
