package hass

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the expiry of a long-lived access token. The
// signature is not checked; only Home Assistant can do that. A token
// without an exp claim returns the zero time.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// CheckToken logs when the configured token is unreadable, expired or
// about to expire.
func (c *Client) CheckToken(now time.Time, warnWithin time.Duration) {
	exp, err := TokenExpiry(c.token)
	if err != nil {
		c.log.Warn("access token is not a JWT", "error", err)
		return
	}

	switch {
	case exp.IsZero():
		return
	case !exp.After(now):
		c.log.Error("access token expired", "expired_at", exp)
	case exp.Sub(now) < warnWithin:
		c.log.Warn("access token expires soon", "expires_at", exp)
	}
}
