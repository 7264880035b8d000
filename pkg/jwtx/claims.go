package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the lifetime used when minting access tokens
// without an explicit TTL. Short-lived for security - the refresh token is
// what keeps a login alive.
const DefaultAccessTokenTTL = 15 * time.Minute

// Claims are the access-token claims the GoTrue wire contract carries.
// The registered claims cover exp/sub; the custom fields mirror the
// server's user record so a token can be inspected without a round-trip.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user
	Email string `json:"email,omitempty"`

	// AppMetadata is provider-managed metadata (e.g. {"provider": "email"})
	AppMetadata map[string]any `json:"app_metadata,omitempty"`

	// UserMetadata is user-managed metadata with arbitrary shape
	UserMetadata map[string]any `json:"user_metadata,omitempty"`

	// Role assigned to the user (e.g. "authenticated")
	Role string `json:"role,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for an access token.
func NewAccessClaims(
	subject, email, role string,
	appMetadata, userMetadata map[string]any,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:        email,
		AppMetadata:  appMetadata,
		UserMetadata: userMetadata,
		Role:         role,
	}
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
