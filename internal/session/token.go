package session

import (
	"errors"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiry claim")

// TokenExpiry peeks at a JWT's exp claim without verifying its signature.
// The client never holds the signing secret; this is only a cheap local
// hint that a session is stale before spending a round trip on /auth/me.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// SessionLikelyExpired inspects the client's cookies for the API base URL
// and reports whether every JWT-shaped cookie has already expired. It
// returns false when no cookie can be read as a JWT: absence of a local
// hint is not evidence of an expired session.
func (s *Store) SessionLikelyExpired(now time.Time) bool {
	base, err := url.Parse(s.client.BaseURL())
	if err != nil {
		return false
	}

	sawToken := false
	for _, cookie := range s.client.Jar().Cookies(base) {
		exp, err := TokenExpiry(cookie.Value)
		if err != nil {
			continue
		}
		sawToken = true
		if exp.After(now) {
			return false
		}
	}
	return sawToken
}
