// Package sessionstore persists the current auth session so a process
// restart keeps its login. At most one session is stored; saving replaces
// whatever was there.
package sessionstore

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/gotrue/pkg/gotrue"
)

// ErrNoSession is returned by Load when nothing is stored.
var ErrNoSession = errors.New("sessionstore: no session stored")

// Store persists at most one session.
type Store interface {
	// Save replaces the stored session.
	Save(ctx context.Context, session gotrue.Session) error

	// Load returns the stored session, or ErrNoSession.
	Load(ctx context.Context) (gotrue.Session, error)

	// Clear removes the stored session. Clearing an empty store is not an
	// error.
	Clear(ctx context.Context) error

	Close() error
}
