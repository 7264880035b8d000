// Package gotruetest provides an in-process fake GoTrue server for tests.
// It implements the wire contract the SDK speaks (signup, password and
// refresh grants, user get/update, logout, settings, recover, magiclink)
// with real bcrypt hashing, single-use refresh-token rotation and HS256
// access tokens, so client tests exercise the full serialization path.
package gotruetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/aussiebroadwan/gotrue/pkg/jwtx"
)

// Server is a fake GoTrue server backed by httptest.
type Server struct {
	// URL is the base URL clients should be pointed at.
	URL string

	// Secret is the HS256 secret access tokens are signed with.
	Secret string

	// AccessTokenTTL controls the exp claim of minted tokens. Negative
	// values mint already-expired tokens.
	AccessTokenTTL time.Duration

	ts       *httptest.Server
	signer   *jwtx.HS256Signer
	verifier *jwtx.HS256Verifier

	requests atomic.Int64

	mu      sync.Mutex
	users   map[string]*userRecord // keyed by email
	refresh map[string]string      // refresh token -> email
}

type userRecord struct {
	id           uuid.UUID
	email        string
	passwordHash []byte
	role         string
	createdAt    time.Time
	updatedAt    time.Time
	confirmedAt  time.Time
	lastSignInAt time.Time
	userMetadata map[string]any

	newEmail          string
	emailChangeSentAt time.Time
}

// NewServer starts a fake server signing tokens with the given secret.
// The server is shut down when the test finishes.
func NewServer(tb testingT, secret string) *Server {
	tb.Helper()

	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		tb.Fatalf("gotruetest: signer: %v", err)
	}
	verifier, err := jwtx.NewVerifierHS256(secret)
	if err != nil {
		tb.Fatalf("gotruetest: verifier: %v", err)
	}

	s := &Server{
		Secret:         secret,
		AccessTokenTTL: jwtx.DefaultAccessTokenTTL,
		signer:         signer,
		verifier:       verifier,
		users:          make(map[string]*userRecord),
		refresh:        make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.Handle("POST /signup", s.counted(s.handleSignup))
	mux.Handle("POST /token", s.counted(s.handleToken))
	mux.Handle("GET /user", s.counted(s.handleGetUser))
	mux.Handle("PUT /user", s.counted(s.handleUpdateUser))
	mux.Handle("POST /logout", s.counted(s.handleLogout))
	mux.Handle("GET /settings", s.counted(s.handleSettings))
	mux.Handle("POST /recover", s.counted(s.handleMailout))
	mux.Handle("POST /magiclink", s.counted(s.handleMailout))

	s.ts = httptest.NewServer(mux)
	s.URL = s.ts.URL
	tb.Cleanup(s.ts.Close)

	return s
}

// testingT is the subset of *testing.T the server needs. Declared here so
// the package does not force a testing import on non-test callers.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}

// Requests reports how many HTTP requests the server has received.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) counted(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		h(w, r)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid signup payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[creds.Email]; exists {
		writeError(w, http.StatusBadRequest, "A user with this email address has already been registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hashing failed")
		return
	}

	now := time.Now().UTC()
	user := &userRecord{
		id:           uuid.New(),
		email:        creds.Email,
		passwordHash: hash,
		role:         "authenticated",
		createdAt:    now,
		updatedAt:    now,
		confirmedAt:  now,
		lastSignInAt: now,
		userMetadata: map[string]any{},
	}
	s.users[creds.Email] = user

	s.writeSessionLocked(w, user)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("grant_type") {
	case "password":
		s.handlePasswordGrant(w, r)
	case "refresh_token":
		s.handleRefreshGrant(w, r)
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "")
	}
}

func (s *Server) handlePasswordGrant(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[creds.Email]
	if !ok || bcrypt.CompareHashAndPassword(user.passwordHash, []byte(creds.Password)) != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "Invalid email or password")
		return
	}

	user.lastSignInAt = time.Now().UTC()
	s.writeSessionLocked(w, user)
}

func (s *Server) handleRefreshGrant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.refresh[body.RefreshToken]
	if !ok {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "Invalid Refresh Token")
		return
	}

	// Single use. Spend the token before minting its replacement.
	delete(s.refresh, body.RefreshToken)

	s.writeSessionLocked(w, s.users[email])
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.userPayloadLocked(user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var attrs struct {
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Data     map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if attrs.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(attrs.Password), bcrypt.MinCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "hashing failed")
			return
		}
		user.passwordHash = hash
	}
	if attrs.Email != "" && attrs.Email != user.email {
		user.newEmail = attrs.Email
		user.emailChangeSentAt = now
	}
	for k, v := range attrs.Data {
		user.userMetadata[k] = v
	}
	user.updatedAt = now

	writeJSON(w, http.StatusOK, s.userPayloadLocked(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for token, email := range s.refresh {
		if email == user.email {
			delete(s.refresh, token)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"external":        map[string]bool{"github": true, "google": false},
		"external_labels": map[string]string{"github": "GitHub"},
		"disable_signup":  false,
		"autoconfirm":     true,
	})
}

// handleMailout covers /recover and /magiclink; both take an email, send a
// mail out of band and answer with an empty object.
func (s *Server) handleMailout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeError(w, http.StatusUnprocessableEntity, "Password recovery requires an email")
		return
	}

	s.mu.Lock()
	_, exists := s.users[body.Email]
	s.mu.Unlock()

	if !exists {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{})
}

// authenticate resolves the bearer token to a user record, writing a 401
// when it cannot.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*userRecord, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, "This endpoint requires a Bearer token")
		return nil, false
	}

	claims, err := s.verifier.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}

	s.mu.Lock()
	user, exists := s.users[claims.Email]
	s.mu.Unlock()
	if !exists {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}

	return user, true
}

// writeSessionLocked mints a fresh token pair for the user and writes the
// session response. Callers hold s.mu.
func (s *Server) writeSessionLocked(w http.ResponseWriter, user *userRecord) {
	claims := jwtx.NewAccessClaims(
		user.id.String(),
		user.email,
		user.role,
		map[string]any{"provider": "email"},
		user.userMetadata,
		s.AccessTokenTTL,
		time.Now().UTC(),
	)

	accessToken, err := s.signer.Sign(claims)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "signing failed")
		return
	}

	refreshToken := ulid.Make().String()
	s.refresh[refreshToken] = user.email

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"token_type":    "bearer",
		"expires_in":    int(s.AccessTokenTTL.Seconds()),
		"refresh_token": refreshToken,
		"user":          s.userPayloadLocked(user),
	})
}

// userPayloadLocked renders the user record on the wire. Callers hold s.mu.
func (s *Server) userPayloadLocked(user *userRecord) map[string]any {
	payload := map[string]any{
		"id":              user.id.String(),
		"aud":             "authenticated",
		"role":            user.role,
		"email":           user.email,
		"confirmed_at":    user.confirmedAt,
		"last_sign_in_at": user.lastSignInAt,
		"app_metadata":    map[string]any{"provider": "email"},
		"user_metadata":   user.userMetadata,
		"created_at":      user.createdAt,
		"updated_at":      user.updatedAt,
	}

	if user.newEmail != "" {
		payload["new_email"] = user.newEmail
		payload["email_change_sent_at"] = user.emailChangeSentAt
	}

	return payload
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "msg": msg})
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]any{"error": code, "error_description": description})
}
