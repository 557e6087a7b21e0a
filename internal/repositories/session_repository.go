package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ottbox/backend/internal/auth"
	"github.com/ottbox/backend/internal/models"
)

// SQLiteSessionStore persists session tokens to SQLite.
type SQLiteSessionStore struct {
	conn *sql.DB
}

// NewSQLiteSessionStore constructs a session store over the shared handle.
func NewSQLiteSessionStore(conn *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{conn: conn}
}

// Save stores or updates a session record, keyed by token.
func (s *SQLiteSessionStore) Save(ctx context.Context, session models.Session) error {
	_, err := s.conn.ExecContext(ctx, `
        INSERT INTO sessions (token, user_id, expires_at)
        VALUES (?, ?, ?)
        ON CONFLICT (token)
        DO UPDATE SET user_id = excluded.user_id, expires_at = excluded.expires_at
    `, session.Token, session.UserID, session.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

// Find loads a session by its token.
func (s *SQLiteSessionStore) Find(ctx context.Context, token string) (models.Session, error) {
	row := s.conn.QueryRowContext(ctx, `
        SELECT token, user_id, expires_at
        FROM sessions
        WHERE token = ?
    `, token)

	var (
		session models.Session
		expires int64
	)
	if err := row.Scan(&session.Token, &session.UserID, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, auth.ErrSessionNotFound
		}
		return models.Session{}, fmt.Errorf("select session: %w", err)
	}

	session.ExpiresAt = time.Unix(expires, 0).UTC()
	return session, nil
}

// Delete removes a session by its token.
func (s *SQLiteSessionStore) Delete(ctx context.Context, token string) error {
	result, err := s.conn.ExecContext(ctx, `
        DELETE FROM sessions
        WHERE token = ?
    `, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return auth.ErrSessionNotFound
	}

	return nil
}

// PurgeExpired deletes every session whose expiry is at or before now.
func (s *SQLiteSessionStore) PurgeExpired(ctx context.Context, now time.Time) error {
	_, err := s.conn.ExecContext(ctx, `
        DELETE FROM sessions
        WHERE expires_at <= ?
    `, now.Unix())
	if err != nil {
		return fmt.Errorf("purge expired sessions: %w", err)
	}

	return nil
}
