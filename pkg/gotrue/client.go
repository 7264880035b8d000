package gotrue

import (
	"context"
	"errors"
	"sync"

	"github.com/aussiebroadwan/gotrue/pkg/jwtx"
)

// Client wraps the API facade with a held session. At most one session is
// held at a time; every successful sign-in, sign-up or refresh replaces it
// wholesale, and explicit-token calls never touch it.
//
// A Client is safe for concurrent use. Callers that serve several
// logged-in users from one process should use API directly and manage
// tokens themselves.
type Client struct {
	api      *API
	verifier *jwtx.HS256Verifier

	mu      sync.RWMutex
	session *Session
}

// New creates a Client from the given configuration. The JWT secret is
// optional; without it remote calls work but ParseToken and Validate
// return ErrSecretNotConfigured.
func New(cfg Config, opts ...Option) (*Client, error) {
	api, err := NewAPI(cfg, opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{api: api}

	if cfg.JWTSecret != "" {
		c.verifier, err = jwtx.NewVerifierHS256(cfg.JWTSecret)
		if err != nil {
			return nil, &ConfigError{Err: err, Reason: "JWT secret"}
		}
	}

	return c, nil
}

// NewFromEnv creates a Client configured from the GOTRUE_* environment
// variables.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// API returns the underlying stateless facade.
func (c *Client) API() *API { return c.api }

// SignUp registers a new user and stores the returned session.
func (c *Client) SignUp(ctx context.Context, creds Credentials) (*Session, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	session, err := c.api.SignUp(ctx, creds)
	if err != nil {
		return nil, err
	}

	c.setSession(session)
	return session, nil
}

// SignIn authenticates with email and password and stores the returned
// session.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	session, err := c.api.SignIn(ctx, creds)
	if err != nil {
		return nil, err
	}

	c.setSession(session)
	return session, nil
}

// Refresh exchanges the held session's refresh token for a new session and
// stores it. The old refresh token is spent either way; on failure the
// held session is left in place for the caller to inspect.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	current, err := c.CurrentSession()
	if err != nil {
		return nil, err
	}

	session, err := c.api.RefreshAccessToken(ctx, current.RefreshToken)
	if err != nil {
		return nil, err
	}

	c.setSession(session)
	return session, nil
}

// RefreshWithToken exchanges the given refresh token for a new session.
// The held session, if any, is not touched; the caller owns the result.
func (c *Client) RefreshWithToken(ctx context.Context, refreshToken string) (*Session, error) {
	if err := requireNonEmpty("refreshToken", refreshToken); err != nil {
		return nil, err
	}
	return c.api.RefreshAccessToken(ctx, refreshToken)
}

// User fetches the profile for the held session's access token.
func (c *Client) User(ctx context.Context) (*User, error) {
	current, err := c.CurrentSession()
	if err != nil {
		return nil, err
	}
	return c.api.GetUser(ctx, current.AccessToken)
}

// UserWithToken fetches the profile for an explicit access token.
func (c *Client) UserWithToken(ctx context.Context, token string) (*User, error) {
	if err := requireNonEmpty("token", token); err != nil {
		return nil, err
	}
	return c.api.GetUser(ctx, token)
}

// Update applies a partial update to the held session's user. The cached
// user snapshot is not refreshed; re-fetch with User if needed.
func (c *Client) Update(ctx context.Context, attrs UserAttributes) (*UserUpdated, error) {
	current, err := c.CurrentSession()
	if err != nil {
		return nil, err
	}
	return c.api.UpdateUser(ctx, current.AccessToken, attrs)
}

// UpdateWithToken applies a partial update for an explicit access token.
// The held session, if any, is not touched.
func (c *Client) UpdateWithToken(ctx context.Context, token string, attrs UserAttributes) (*UserUpdated, error) {
	if err := requireNonEmpty("token", token); err != nil {
		return nil, err
	}
	return c.api.UpdateUser(ctx, token, attrs)
}

// SignOut revokes the held session's tokens and clears the session. The
// session is cleared whether or not the remote call succeeded; the local
// credentials are gone regardless and keeping them would invite reuse of
// tokens the server may already consider revoked.
func (c *Client) SignOut(ctx context.Context) error {
	current, err := c.CurrentSession()
	if err != nil {
		return err
	}

	err = c.api.SignOut(ctx, current.AccessToken)
	c.setSession(nil)
	return err
}

// SignOutWithToken revokes the tokens belonging to an explicit access
// token. The held session, if any, is not touched.
func (c *Client) SignOutWithToken(ctx context.Context, token string) error {
	if err := requireNonEmpty("token", token); err != nil {
		return err
	}
	return c.api.SignOut(ctx, token)
}

// RecoverPassword sends a password-recovery mail to the given address.
func (c *Client) RecoverPassword(ctx context.Context, email string) error {
	if err := requireNonEmpty("email", email); err != nil {
		return err
	}
	return c.api.RecoverPassword(ctx, email)
}

// MagicLink sends a passwordless sign-in link to the given address.
func (c *Client) MagicLink(ctx context.Context, email string) error {
	if err := requireNonEmpty("email", email); err != nil {
		return err
	}
	return c.api.MagicLink(ctx, email)
}

// Settings fetches the server's public configuration.
func (c *Client) Settings(ctx context.Context) (*Settings, error) {
	return c.api.GetSettings(ctx)
}

// CurrentSession returns a copy of the held session without a network
// call. Returns ErrNotSignedIn when unauthenticated.
func (c *Client) CurrentSession() (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return nil, ErrNotSignedIn
	}

	session := *c.session
	return &session, nil
}

// CurrentUser returns a copy of the held session's user without a network
// call. Returns ErrNotSignedIn when unauthenticated.
func (c *Client) CurrentUser() (*User, error) {
	session, err := c.CurrentSession()
	if err != nil {
		return nil, err
	}

	user := session.User
	return &user, nil
}

// ParseToken verifies a token against the configured JWT secret and
// returns its decoded claims. Verification is entirely local.
func (c *Client) ParseToken(token string) (*ParsedToken, error) {
	if err := requireNonEmpty("token", token); err != nil {
		return nil, err
	}
	if c.verifier == nil {
		return nil, ErrSecretNotConfigured
	}

	claims, err := c.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	return parsedTokenFromClaims(claims), nil
}

// Validate reports whether a token verifies against the configured JWT
// secret. Any token problem (malformed, bad signature, expired) is a
// false verdict; only a missing secret is an error, since in that case no
// verdict can be given at all.
func (c *Client) Validate(token string) (bool, error) {
	_, err := c.ParseToken(token)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSecretNotConfigured):
		return false, err
	default:
		var invalidArg *InvalidArgumentError
		if errors.As(err, &invalidArg) {
			return false, err
		}
		return false, nil
	}
}

// setSession replaces the held session. Values are swapped wholesale so a
// concurrent reader sees either the old session or the new one, never a
// mix.
func (c *Client) setSession(session *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

func validateCredentials(creds Credentials) error {
	if err := requireNonEmpty("email", creds.Email); err != nil {
		return err
	}
	return requireNonEmpty("password", creds.Password)
}

func parsedTokenFromClaims(claims jwtx.Claims) *ParsedToken {
	parsed := &ParsedToken{
		Subject:      claims.Subject,
		Email:        claims.Email,
		Role:         claims.Role,
		AppMetadata:  claims.AppMetadata,
		UserMetadata: claims.UserMetadata,
	}

	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}
	if parsed.AppMetadata == nil {
		parsed.AppMetadata = map[string]any{}
	}
	if parsed.UserMetadata == nil {
		parsed.UserMetadata = map[string]any{}
	}

	return parsed
}
