package sessionstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/gotrue/pkg/gotrue"
	"github.com/aussiebroadwan/gotrue/pkg/sessionstore"
)

func newTestStore(t *testing.T) *sessionstore.SQLiteStore {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "session.db")
	store, err := sessionstore.OpenSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func testSession(accessToken string) gotrue.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return gotrue.Session{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		RefreshToken: "refresh-" + accessToken,
		User: gotrue.User{
			ID:        uuid.New(),
			Aud:       "authenticated",
			Role:      "authenticated",
			Email:     "store@example.com",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func TestSaveLoadClear(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, sessionstore.ErrNoSession)

	saved := testSession("token-1")
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, saved, loaded)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, sessionstore.ErrNoSession)

	// Clearing an empty store is not an error.
	require.NoError(t, store.Clear(ctx))
}

func TestSaveIsLastWriteWins(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("first")))
	second := testSession("second")
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, second, loaded)
}

func TestReopenKeepsSession(t *testing.T) {
	t.Parallel()

	dsn := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	store, err := sessionstore.OpenSQLite(dsn)
	require.NoError(t, err)

	saved := testSession("persisted")
	require.NoError(t, store.Save(ctx, saved))
	require.NoError(t, store.Close())

	reopened, err := sessionstore.OpenSQLite(dsn)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, saved.AccessToken, loaded.AccessToken)
	require.Equal(t, saved.User.ID, loaded.User.ID)
}
