// Command gotrue is a smoke-test CLI for the SDK. It signs in with the
// credentials given on the command line, prints the resulting user and
// verifies the access token locally.
//
// Configuration comes from the GOTRUE_* environment variables, optionally
// loaded from a .env file in the working directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/gotrue/pkg/gotrue"
	"github.com/aussiebroadwan/gotrue/pkg/slogx"
)

// client is the process-wide handle. Construction happens once, on first
// use, no matter how many goroutines race to get here.
var client = sync.OnceValues(func() (*gotrue.Client, error) {
	return gotrue.NewFromEnv()
})

func main() {
	// Missing .env is fine; the variables may come from the environment.
	_ = godotenv.Load()

	log := slogx.New(slogx.Config{
		Service: "gotrue-cli",
		Env:     os.Getenv("APP_ENV"),
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
	})

	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <email> <password>\n", os.Args[0])
		os.Exit(2)
	}
	email, password := os.Args[1], os.Args[2]

	c, err := client()
	if err != nil {
		log.Error("client setup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := c.SignIn(ctx, gotrue.Credentials{Email: email, Password: password})
	if err != nil {
		log.Error("sign-in failed", "error", err)
		os.Exit(1)
	}

	log.Info("signed in",
		"user_id", session.User.ID,
		"email", session.User.Email,
		"role", session.User.Role,
		"expires_in", session.ExpiresIn,
	)

	parsed, err := c.ParseToken(session.AccessToken)
	switch {
	case err == nil:
		log.Info("token verified locally",
			"sub", parsed.Subject,
			"expires_at", parsed.ExpiresAt,
		)
	case errors.Is(err, gotrue.ErrSecretNotConfigured):
		log.Warn("skipping local verification", "reason", "no "+gotrue.EnvJWTSecret)
	default:
		log.Error("token verification failed", "error", err)
		os.Exit(1)
	}

	if err := c.SignOut(ctx); err != nil {
		log.Warn("sign-out failed", "error", err)
	}
}
