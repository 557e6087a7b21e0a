package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ottbox/backend/internal/models"
)

// SQLiteUserRepository provides SQLite-backed persistence for users.
type SQLiteUserRepository struct {
	conn *sql.DB
}

// NewSQLiteUserRepository constructs a user repository over the shared handle.
func NewSQLiteUserRepository(conn *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{conn: conn}
}

// Create persists a new user and returns its assigned id.
func (r *SQLiteUserRepository) Create(ctx context.Context, username string, hash, salt []byte) (int64, error) {
	var id int64
	err := r.conn.QueryRowContext(ctx, `
        INSERT INTO users (username, password_hash, password_salt)
        VALUES (?, ?, ?)
        RETURNING id
    `, username, hash, salt).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return id, nil
}

// Upsert inserts or refreshes credential material for a username. It is used
// only by the seeding path at first boot.
func (r *SQLiteUserRepository) Upsert(ctx context.Context, username string, hash, salt []byte) error {
	_, err := r.conn.ExecContext(ctx, `
        INSERT INTO users (username, password_hash, password_salt)
        VALUES (?, ?, ?)
        ON CONFLICT (username)
        DO UPDATE SET password_hash = excluded.password_hash, password_salt = excluded.password_salt
    `, username, hash, salt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// FindByUsername fetches a user with credential material by username.
func (r *SQLiteUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	row := r.conn.QueryRowContext(ctx, `
        SELECT id, username, password_hash, password_salt
        FROM users
        WHERE username = ?
    `, username)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Hash, &user.Salt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by username: %w", err)
	}

	return user, nil
}

// FindByID fetches a user by its identifier.
func (r *SQLiteUserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	row := r.conn.QueryRowContext(ctx, `
        SELECT id, username, password_hash, password_salt
        FROM users
        WHERE id = ?
    `, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Hash, &user.Salt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	return user, nil
}
