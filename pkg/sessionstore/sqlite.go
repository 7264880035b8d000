package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/aussiebroadwan/gotrue/pkg/gotrue"
	"github.com/aussiebroadwan/gotrue/pkg/sessionstore/migrations"
)

// SQLiteStore persists the session in a single-row SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at dsn and applies any
// pending migrations.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// applyMigrations applies any pending migrations from the embedded
// migration files compiled into the binary.
func (s *SQLiteStore) applyMigrations() error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return err
	}

	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", src, "", driver)
	if err != nil {
		return err
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// Save replaces the stored session. The single-row constraint makes this
// last-write-wins.
func (s *SQLiteStore) Save(ctx context.Context, session gotrue.Session) error {
	userJSON, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session (id, access_token, token_type, expires_in, refresh_token, user_json, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			expires_in = excluded.expires_in,
			refresh_token = excluded.refresh_token,
			user_json = excluded.user_json,
			updated_at = excluded.updated_at;`,
		session.AccessToken,
		session.TokenType,
		session.ExpiresIn,
		session.RefreshToken,
		string(userJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Load returns the stored session, or ErrNoSession.
func (s *SQLiteStore) Load(ctx context.Context) (gotrue.Session, error) {
	var (
		session  gotrue.Session
		userJSON string
	)

	row := s.db.QueryRowContext(ctx, `
		SELECT access_token, token_type, expires_in, refresh_token, user_json
		FROM session WHERE id = 1;`)

	err := row.Scan(
		&session.AccessToken,
		&session.TokenType,
		&session.ExpiresIn,
		&session.RefreshToken,
		&userJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return gotrue.Session{}, ErrNoSession
	}
	if err != nil {
		return gotrue.Session{}, err
	}

	if err := json.Unmarshal([]byte(userJSON), &session.User); err != nil {
		return gotrue.Session{}, fmt.Errorf("decode user: %w", err)
	}

	return session, nil
}

// Clear removes the stored session.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1;`)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
