package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-value-for-tests"

func mintToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()

	signer, err := NewSignerHS256(secret)
	require.NoError(t, err)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func TestNewEmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewSignerHS256("")
	require.ErrorIs(t, err, ErrEmptySecret)

	_, err = NewVerifierHS256("")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	claims := NewAccessClaims(
		"user-123",
		"john.doe@example.com",
		"authenticated",
		map[string]any{"provider": "email"},
		map[string]any{"display_name": "John"},
		DefaultAccessTokenTTL,
		time.Now(),
	)
	token := mintToken(t, testSecret, claims)

	verifier, err := NewVerifierHS256(testSecret)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", got.Subject)
	require.Equal(t, "john.doe@example.com", got.Email)
	require.Equal(t, "authenticated", got.Role)
	require.Equal(t, "email", got.AppMetadata["provider"])
	require.Equal(t, "John", got.UserMetadata["display_name"])
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	claims := NewAccessClaims("user-123", "a@b.c", "authenticated", nil, nil, time.Minute, time.Now())
	token := mintToken(t, testSecret, claims)

	verifier, err := NewVerifierHS256("a-different-secret")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	claims := NewAccessClaims("user-123", "a@b.c", "authenticated", nil, nil, time.Minute, time.Now().Add(-time.Hour))
	token := mintToken(t, testSecret, claims)

	verifier, err := NewVerifierHS256(testSecret)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
	require.NotErrorIs(t, err, ErrInvalidSig)
	require.NotErrorIs(t, err, ErrMalformed)
}

func TestVerifyNotYetValid(t *testing.T) {
	t.Parallel()

	claims := NewAccessClaims("user-123", "a@b.c", "authenticated", nil, nil, time.Hour, time.Now())
	claims.NotBefore = jwt.NewNumericDate(time.Now().Add(30 * time.Minute))
	token := mintToken(t, testSecret, claims)

	verifier, err := NewVerifierHS256(testSecret)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrNotYetValid)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifierHS256(testSecret)
	require.NoError(t, err)

	for _, token := range []string{
		"",
		"not-a-jwt",
		"only.two",
		"a.b.c.d",
		"!!!.###.$$$",
	} {
		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrMalformed, "token %q", token)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	// alg=none tokens must never pass, even with a valid-looking payload.
	claims := NewAccessClaims("user-123", "a@b.c", "authenticated", nil, nil, time.Minute, time.Now())
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	verifier, err := NewVerifierHS256(testSecret)
	require.NoError(t, err)

	_, err = verifier.Verify(unsigned)
	require.Error(t, err)
}

func TestVerifyMissingMetadataClaims(t *testing.T) {
	t.Parallel()

	claims := NewAccessClaims("user-123", "a@b.c", "authenticated", nil, nil, time.Minute, time.Now())
	token := mintToken(t, testSecret, claims)

	verifier, err := NewVerifierHS256(testSecret)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Nil(t, got.AppMetadata)
	require.Nil(t, got.UserMetadata)
}
