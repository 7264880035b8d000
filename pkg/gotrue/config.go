package gotrue

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// Environment variables read by LoadConfig.
const (
	EnvURL       = "GOTRUE_URL"
	EnvHeaders   = "GOTRUE_HEADERS"
	EnvJWTSecret = "GOTRUE_JWT_SECRET"
)

// DefaultTimeout bounds each HTTP request when no custom http.Client is
// supplied.
const DefaultTimeout = 10 * time.Second

// Config is the client configuration, read once at construction.
type Config struct {
	// URL is the base URL of the auth server. Required.
	URL string

	// Headers are attached to every outgoing request. Optional.
	Headers map[string]string

	// JWTSecret is the shared HMAC secret for local token verification.
	// Optional; remote calls work without it.
	JWTSecret string

	// Timeout for each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// LoadConfig builds a Config from the GOTRUE_* environment variables.
// A missing URL or a malformed headers string is a *ConfigError.
func LoadConfig() (Config, error) {
	cfg := Config{
		URL:       os.Getenv(EnvURL),
		JWTSecret: os.Getenv(EnvJWTSecret),
	}

	if cfg.URL == "" {
		return Config{}, &ConfigError{Err: ErrURLNotConfigured, Reason: EnvURL + " is not set"}
	}

	headers, err := ParseHeaders(os.Getenv(EnvHeaders))
	if err != nil {
		return Config{}, err
	}
	cfg.Headers = headers

	return cfg, nil
}

var (
	headerEntrySep = regexp.MustCompile(`[\s,;]+`)
	headerKVSep    = regexp.MustCompile(`[=:]`)
)

// ParseHeaders parses a default-headers list of the form
// "Key1=Value1,Key2:Value2". Entries are separated by runs of commas,
// semicolons or whitespace; key and value are separated by "=" or ":".
// An entry that does not yield a non-empty key and value is an error.
func ParseHeaders(s string) (map[string]string, error) {
	headers := make(map[string]string)

	for _, entry := range headerEntrySep.Split(strings.TrimSpace(s), -1) {
		if entry == "" {
			continue
		}

		kv := headerKVSep.Split(entry, 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return nil, &ConfigError{Err: ErrMalformedHeaders, Reason: fmt.Sprintf("entry %q", entry)}
		}
		headers[kv[0]] = kv[1]
	}

	return headers, nil
}

// validate checks the required fields and applies defaults.
func (c *Config) validate() error {
	if c.URL == "" {
		return &ConfigError{Err: ErrURLNotConfigured}
	}

	c.URL = strings.TrimSuffix(c.URL, "/")

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	return nil
}
