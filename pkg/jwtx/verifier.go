package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a compact JWT and gives you back the claims if it's
// legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Leeway allows small clock skew when validating exp/nbf.
	// Because time sync is never perfect.
	Leeway time.Duration
}

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrExpired    = errors.New("jwtx: token expired")
	ErrIssuer     = errors.New("jwtx: issuer mismatch")
)

// HS256Verifier validates tokens minted by HS256Signer with the same key.
type HS256Verifier struct {
	key  []byte
	opts VerifyOptions
}

func NewVerifierHS256(key []byte, opts VerifyOptions) (*HS256Verifier, error) {
	if len(key) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	return &HS256Verifier{key: key, opts: opts}, nil
}

// Verify checks the signature first, then expiry, then issuer, mapping the
// library errors onto the package taxonomy so callers can distinguish a
// tampered token from a merely stale one.
func (v *HS256Verifier) Verify(raw string) (Claims, error) {
	var claims Claims

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.opts.Leeway),
		jwt.WithExpirationRequired(),
	}

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return v.key, nil
	}, parserOpts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, ErrInvalidSig
		default:
			return Claims{}, ErrMalformed
		}
	}

	if v.opts.Issuer != "" && claims.Issuer != v.opts.Issuer {
		return Claims{}, ErrIssuer
	}

	return claims, nil
}
