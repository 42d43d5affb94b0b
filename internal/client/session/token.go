package session

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claims are the parts of a JWT the client reads without verifying the
// signature. The backend remains the authority on validity.
type claims struct {
	ID        int64
	HasID     bool
	Role      string
	ExpiresAt time.Time
}

// parseClaims reads token as a JWT. ok is false for anything that does not
// parse, in which case the token is treated as opaque.
func parseClaims(token string) (c claims, ok bool) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return claims{}, false
	}

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if role, ok := mc["role"].(string); ok {
		c.Role = role
	}
	for _, k := range []string{"id", "sub"} {
		if id, ok := numericClaim(mc[k]); ok {
			c.ID, c.HasID = id, true
			break
		}
	}
	return c, true
}

func numericClaim(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// expired reports whether token is a JWT whose exp claim is not after now.
func expired(token string, now time.Time) bool {
	c, ok := parseClaims(token)
	if !ok || c.ExpiresAt.IsZero() {
		return false
	}
	return !c.ExpiresAt.After(now)
}
