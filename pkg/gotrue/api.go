package gotrue

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

// API is the stateless facade over the auth server's REST surface: one
// method per remote verb, no held session, no retries. Most callers want
// Client instead; API is for stateless use such as serving several
// logged-in users from one process.
type API struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// Option configures an API (and, through it, a Client).
type Option func(*API)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *API) { a.httpClient = hc }
}

// WithLogger installs a logger for per-request debug logging.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) { a.log = log }
}

// WithRateLimit throttles outgoing requests client-side. Useful when the
// server enforces strict limits on the auth endpoints and a burst of
// sign-ins would otherwise trip them.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(a *API) { a.limiter = rate.NewLimiter(limit, burst) }
}

// NewAPI creates a stateless facade from the given configuration.
func NewAPI(cfg Config, opts ...Option) (*API, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	api := &API{
		baseURL: cfg.URL,
		headers: cfg.Headers,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: discardLogger(),
	}

	for _, opt := range opts {
		opt(api)
	}

	return api, nil
}

// SignUp registers a new user with an email address and password.
func (a *API) SignUp(ctx context.Context, creds Credentials) (*Session, error) {
	resp, err := a.do(ctx, http.MethodPost, "/signup", "", creds)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := decodeJSON(resp, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignIn logs in an existing user with an email address and password.
func (a *API) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	resp, err := a.do(ctx, http.MethodPost, "/token?grant_type=password", "", creds)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := decodeJSON(resp, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshAccessToken exchanges a refresh token for a new session. Refresh
// tokens are single-use; the returned session carries the replacement.
func (a *API) RefreshAccessToken(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}

	resp, err := a.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := decodeJSON(resp, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUser fetches the profile of the user the token was issued for.
func (a *API) GetUser(ctx context.Context, token string) (*User, error) {
	resp, err := a.do(ctx, http.MethodGet, "/user", token, nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update to the token's user. An email change
// is not applied immediately; the response carries the pending address.
func (a *API) UpdateUser(ctx context.Context, token string, attrs UserAttributes) (*UserUpdated, error) {
	resp, err := a.do(ctx, http.MethodPut, "/user", token, attrs)
	if err != nil {
		return nil, err
	}

	var updated UserUpdated
	if err := decodeJSON(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SignOut revokes all refresh tokens for the token's user.
func (a *API) SignOut(ctx context.Context, token string) error {
	resp, err := a.do(ctx, http.MethodPost, "/logout", token, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// RecoverPassword sends a password-recovery mail to the given address.
func (a *API) RecoverPassword(ctx context.Context, email string) error {
	resp, err := a.do(ctx, http.MethodPost, "/recover", "", map[string]string{"email": email})
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// MagicLink sends a passwordless sign-in link to the given address.
func (a *API) MagicLink(ctx context.Context, email string) error {
	resp, err := a.do(ctx, http.MethodPost, "/magiclink", "", map[string]string{"email": email})
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// GetSettings fetches the server's public configuration.
func (a *API) GetSettings(ctx context.Context) (*Settings, error) {
	resp, err := a.do(ctx, http.MethodGet, "/settings", "", nil)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := decodeJSON(resp, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetURLForProvider builds the URL that starts an OAuth redirect flow with
// the named external provider. No request is made.
func (a *API) GetURLForProvider(provider string) string {
	return a.url("/authorize?provider=" + url.QueryEscape(provider))
}
