package cryptox

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/woowonjae/blogauth/pkg/slogx"
	"golang.org/x/crypto/bcrypt"
)

// Cost bounds for the bcrypt work factor. The effective cost is set once at
// startup via SetCost and read-only afterwards.
const (
	MinCost     = bcrypt.MinCost
	MaxCost     = bcrypt.MaxCost
	DefaultCost = bcrypt.DefaultCost
)

// maxSecretLength is bcrypt's hard input limit. Secrets beyond it are
// truncated before hashing and verification so that any password accepted
// against a legacy row can also be re-encoded. Stored hashes were produced
// by an encoder with the same truncation.
const maxSecretLength = 72

var cost = DefaultCost

var ErrEmptyPassword = errors.New("cryptox: empty password")

// SetCost configures the bcrypt work factor used by HashPassword.
// Out-of-range values are clamped. Call this before serving requests.
func SetCost(c int) {
	if c < MinCost {
		c = MinCost
	}
	if c > MaxCost {
		c = MaxCost
	}
	cost = c
}

// HashPassword encodes a plaintext password into the bcrypt modular-crypt
// format. A fresh salt is drawn on every call, so two hashes of the same
// input never compare equal as strings.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword(secretBytes(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func secretBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxSecretLength {
		b = b[:maxSecretLength]
	}
	return b
}

// IsHashed reports whether a stored credential carries the bcrypt format
// marker. Anything else is treated as an unmigrated plaintext credential.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// MatchPassword verifies a plaintext password against a stored credential in
// either format. Hashed credentials go through bcrypt; everything else is
// compared as plaintext in constant time. The plaintext path is a temporary
// compatibility bridge for rows that predate hashing and is logged loudly,
// through the context-scoped logger so the line names the row it hit, so
// operators can see how much of the table is still unprotected.
func MatchPassword(ctx context.Context, password, stored string) bool {
	if stored == "" {
		return false
	}

	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), secretBytes(password)) == nil
	}

	slogx.FromContext(ctx).Warn("plaintext credential comparison, row awaiting migration")
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}
