package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the smallest accepted HMAC key size in bytes. Anything
// shorter than the hash output weakens the signature.
const MinKeyLength = 32

var ErrKeyTooShort = errors.New("jwtx: signing key shorter than 32 bytes")

// Signer mints signed compact JWTs from claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256Signer signs tokens with a process-wide symmetric secret. The same
// key must be handed to the verifier of the deployment.
type HS256Signer struct {
	key []byte
}

// NewSignerHS256 creates an HS256 signer from raw key bytes supplied by
// configuration. The key is never generated or persisted here.
func NewSignerHS256(key []byte) (*HS256Signer, error) {
	if len(key) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	return &HS256Signer{key: key}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}
