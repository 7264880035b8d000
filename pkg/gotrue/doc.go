/*
Package gotrue provides a client SDK for a GoTrue-compatible authentication
service.

# Overview

The package is organized around two main types:

  - API: the stateless facade, one method per remote endpoint
  - Client: a stateful wrapper holding the current session

Most applications want Client:

	cfg := gotrue.Config{
		URL:       "https://auth.example.com",
		JWTSecret: os.Getenv("GOTRUE_JWT_SECRET"),
	}

	client, err := gotrue.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	session, err := client.SignIn(ctx, gotrue.Credentials{
		Email:    "user@example.com",
		Password: "secret",
	})

After a successful sign-in the client holds the session; later calls use
it implicitly:

	user, err := client.CurrentUser() // cached, no network call
	session, err = client.Refresh(ctx)
	err = client.SignOut(ctx)

Configuration can also come from the GOTRUE_URL, GOTRUE_HEADERS and
GOTRUE_JWT_SECRET environment variables:

	client, err := gotrue.NewFromEnv()

# Explicit Tokens

Every session-scoped operation has a WithToken variant that takes the
token explicitly and never touches the held session. Use these, or API
directly, to serve several logged-in users from one process:

	api, err := gotrue.NewAPI(cfg)
	user, err := api.GetUser(ctx, accessToken)

# Local Token Verification

With a JWT secret configured, access tokens can be verified without a
network round-trip:

	parsed, err := client.ParseToken(session.AccessToken)
	ok, err := client.Validate(session.AccessToken)

ParseToken reports what is wrong with a bad token (jwtx.ErrExpired,
jwtx.ErrInvalidSig, jwtx.ErrMalformed); Validate collapses all of those
into a false verdict. Both return ErrSecretNotConfigured when no secret
is available, since that is a deployment problem rather than a verdict
about the token.

# Error Handling

All failures are synchronous and typed:

  - InvalidArgumentError: a precondition failed locally; no request was made
  - APIError: the server rejected the request, or transport failed
  - ConfigError: the configuration is missing or malformed

The library never retries. An operation either stores a complete new
session or leaves the held state untouched.

# Thread Safety

Client is safe for concurrent use. The held session is guarded by a
read/write lock and replaced wholesale, so concurrent readers see either
the previous session or the new one, never a mix of the two.
*/
package gotrue
