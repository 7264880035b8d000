package gotrue

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrURLNotConfigured is returned at construction when no base URL is
	// available from configuration.
	ErrURLNotConfigured = errors.New("gotrue: base URL not configured")

	// ErrMalformedHeaders is returned at construction when the default
	// headers string cannot be parsed. Malformed entries are rejected, not
	// silently dropped.
	ErrMalformedHeaders = errors.New("gotrue: malformed default headers")

	// ErrSecretNotConfigured is returned from local token verification when
	// no JWT secret was configured. This is a deployment problem, not a
	// verdict about the token, so it is kept distinct from a false/expired
	// outcome.
	ErrSecretNotConfigured = errors.New("gotrue: JWT secret not configured")
)

// ErrNotSignedIn reports that an operation requiring a held session was
// called while unauthenticated. It fails before any network call is made.
var ErrNotSignedIn = &InvalidArgumentError{Field: "session", Reason: "no user is signed in"}

// InvalidArgumentError is a precondition failure detected locally, before
// any transport call. It is never retried and never has side effects.
type InvalidArgumentError struct {
	// Field names the offending input
	Field string

	// Reason describes what was wrong with it
	Reason string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("gotrue: invalid argument %q: %s", e.Field, e.Reason)
}

// requireNonEmpty returns an InvalidArgumentError if value is empty.
func requireNonEmpty(field, value string) error {
	if value == "" {
		return &InvalidArgumentError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// APIError is any failure originating from the transport layer: a non-2xx
// response, a connection failure, or a response body that would not
// deserialize. The server's error code and message are carried when the
// body was parseable; Err holds the underlying cause otherwise.
type APIError struct {
	// StatusCode is the HTTP status, or 0 for connectivity failures
	StatusCode int

	// Code is the server-reported error code (e.g. "invalid_grant")
	Code string

	// Message is the server-reported description
	Message string

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Code != "":
		return fmt.Sprintf("gotrue: api error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("gotrue: api error (%d): %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("gotrue: api error: %v", e.Err)
	default:
		return fmt.Sprintf("gotrue: api error (%d %s)", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *APIError) Unwrap() error { return e.Err }

// ConfigError reports invalid or missing client configuration.
type ConfigError struct {
	// Reason describes the problem, including the offending input
	Reason string

	// Err is the sentinel this error wraps (ErrURLNotConfigured, ...)
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Reason)
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped sentinel for errors.Is.
func (e *ConfigError) Unwrap() error { return e.Err }
