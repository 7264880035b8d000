package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateExpiry(t *testing.T) {
	t.Parallel()

	t.Run("valid token", func(t *testing.T) {
		c := NewAccessClaims("sub", "a@b.c", "authenticated", nil, nil, time.Hour, time.Now())
		require.NoError(t, c.ValidateExpiry())
	})

	t.Run("expired token", func(t *testing.T) {
		c := NewAccessClaims("sub", "a@b.c", "authenticated", nil, nil, time.Minute, time.Now().Add(-time.Hour))
		require.ErrorIs(t, c.ValidateExpiry(), ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := NewAccessClaims("sub", "a@b.c", "authenticated", nil, nil, time.Hour, time.Now())
		c.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Minute))
		require.ErrorIs(t, c.ValidateExpiry(), ErrNotYetValid)
	})

	t.Run("no exp claim", func(t *testing.T) {
		c := Claims{Email: "a@b.c"}
		require.NoError(t, c.ValidateExpiry())
	})
}
