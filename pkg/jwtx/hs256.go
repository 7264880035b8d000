package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret = errors.New("jwtx: empty secret")

	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// HS256Signer mints JWTs using HMAC-SHA256 over a shared secret.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 creates a signer from the shared secret.
func NewSignerHS256(secret string) (*HS256Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &HS256Signer{secret: []byte(secret)}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// HS256Verifier validates JWTs signed with HMAC-SHA256 using a shared
// secret. There is no kid/keyset indirection here - the GoTrue contract
// fixes a single symmetric key for the whole deployment.
type HS256Verifier struct {
	secret []byte
}

// NewVerifierHS256 creates a verifier using the shared secret.
func NewVerifierHS256(secret string) (*HS256Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &HS256Verifier{secret: []byte(secret)}, nil
}

// Verify validates the JWT string and returns its parsed Claims.
// Failures come back as one of the package sentinels so callers can tell
// a bad signature from an expired token without string matching.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	// The parser already checked exp/nbf, but run our own validation so
	// tokens without an exp claim still get a deliberate verdict.
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// mapParseError collapses golang-jwt's error chain into our sentinels.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	default:
		return ErrMalformed
	}
}
