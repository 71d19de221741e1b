package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/woowonjae/blogauth/pkg/idx"
)

// DefaultAccessTokenTTL is the default lifetime for access tokens when the
// deployment does not configure one.
const DefaultAccessTokenTTL = 24 * time.Hour

// Claims are the access-token claims. The subject is the username; Roles
// snapshots the caller's role names at mint time. Role changes after
// issuance only show up once the user re-authenticates.
type Claims struct {
	jwt.RegisteredClaims

	// Role names granted to the subject, e.g. ["ROLE_USER"].
	Roles []string `json:"roles,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for the given subject at
// an explicit instant. The caller passes now so issuance is deterministic
// under test.
func NewAccessClaims(
	subject string,
	roles []string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		Roles: roles,
	}
}

// HasRole reports whether the claims carry the given role name.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
