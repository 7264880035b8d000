package gotrue

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Wire Types
// ============================================================================

// Session is the authenticated state returned by the token-issuing
// endpoints. A Session is immutable once returned; sign-in, sign-up and
// refresh produce a new value rather than mutating an existing one.
type Session struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// RefreshToken is the single-use token exchanged for a new session
	RefreshToken string `json:"refresh_token"`

	// User is the profile snapshot as of the call that produced this session
	User User `json:"user"`
}

// User is the profile record held by the auth server.
type User struct {
	// ID is the server-assigned unique identifier
	ID uuid.UUID `json:"id"`

	// Aud is the audience the user belongs to
	Aud string `json:"aud"`

	// Role assigned to the user (e.g. "authenticated")
	Role string `json:"role"`

	// Email address the user registered with
	Email string `json:"email"`

	// ConfirmedAt is when the email address was confirmed (nil if pending)
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`

	// LastSignInAt is the time of the most recent successful sign-in
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`

	// AppMetadata is provider-managed metadata (e.g. {"provider": "email"})
	AppMetadata map[string]any `json:"app_metadata,omitempty"`

	// UserMetadata is user-managed metadata with arbitrary shape
	UserMetadata map[string]any `json:"user_metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserUpdated is the user record returned by the update endpoint. The
// email-change fields are populated only while an email change is pending
// confirmation.
type UserUpdated struct {
	User

	// NewEmail is the requested address awaiting confirmation
	NewEmail string `json:"new_email,omitempty"`

	// EmailChangeSentAt is when the confirmation mail was sent
	EmailChangeSentAt *time.Time `json:"email_change_sent_at,omitempty"`
}

// Credentials are the sign-in/sign-up input. Provider is only used for
// OAuth-style redirect flows (see API.GetURLForProvider).
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Provider string `json:"-"`
}

// UserAttributes is the partial update payload for the update endpoint.
// Zero-valued fields are omitted from the request.
type UserAttributes struct {
	// Email requests an email change (confirmation mail is sent)
	Email string `json:"email,omitempty"`

	// Password sets a new password
	Password string `json:"password,omitempty"`

	// EmailChangeToken confirms a pending email change
	EmailChangeToken string `json:"email_change_token,omitempty"`

	// Data replaces keys in the user-managed metadata
	Data map[string]any `json:"data,omitempty"`
}

// Settings is the public configuration of the auth server.
type Settings struct {
	// External maps provider names to whether they are enabled
	External map[string]bool `json:"external"`

	// ExternalLabels maps provider names to display labels
	ExternalLabels map[string]string `json:"external_labels"`

	// DisableSignup reports whether new sign-ups are rejected
	DisableSignup bool `json:"disable_signup"`

	// Autoconfirm reports whether sign-ups skip email confirmation
	Autoconfirm bool `json:"autoconfirm"`
}

// ============================================================================
// Local Token View
// ============================================================================

// ParsedToken is the decoded claim set of an access token. It is produced
// only by local verification (Client.ParseToken) and never sent anywhere.
type ParsedToken struct {
	// ExpiresAt is the token expiry instant (exp claim)
	ExpiresAt time.Time

	// Subject is the user ID the token was issued for (sub claim)
	Subject string

	// Email of the token's user
	Email string

	// AppMetadata is provider-managed metadata; empty map when absent
	AppMetadata map[string]any

	// UserMetadata is user-managed metadata; empty map when absent
	UserMetadata map[string]any

	// Role of the token's user
	Role string
}

// errorResponse is the error body shape the auth server produces. Older
// endpoints use code/msg, the token endpoint uses the OAuth2 pair.
type errorResponse struct {
	Code             int    `json:"code,omitempty"`
	Msg              string `json:"msg,omitempty"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}
