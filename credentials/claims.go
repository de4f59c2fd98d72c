package credentials

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/skins-market-client/internal/utils"
)

// Claims is what the client can learn from a credential without asking the backend.
// The market backend issues opaque session ids, in which case only Opaque is set.
type Claims struct {
	Opaque   bool
	Subject  string
	Roles    []string
	IssuedAt time.Time
	Expiry   time.Time
}

// ExpiredAt reports whether the credential is known to be expired at now. Opaque
// credentials and tokens without exp never are.
func (c Claims) ExpiredAt(now time.Time) bool {
	if c.Opaque || c.Expiry.IsZero() {
		return false
	}
	return !now.Before(c.Expiry)
}

// Inspect parses a JWT credential without verifying its signature. The signature is the
// backend's concern; the client only reads exp to avoid a pointless round trip.
func Inspect(raw string) Claims {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{Opaque: true}
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return Claims{Opaque: true}
	}
	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{Opaque: true}
	}

	c := Claims{}
	c.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.Expiry = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	c.Roles = utils.ToStringSlice(claims["roles"])
	if len(c.Roles) == 0 {
		c.Roles = utils.ToStringSlice(claims["role"])
	}
	return c
}
