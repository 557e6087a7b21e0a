package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/ottbox/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided token does not map to a stored session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session exists but its expiry has passed.
	ErrSessionExpired = errors.New("session expired")
)

// SessionStore persists issued tokens so sessions survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session models.Session) error
	Find(ctx context.Context, token string) (models.Session, error)
	Delete(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context, now time.Time) error
}

// Manager manages the lifecycle of issued session tokens backed by a
// persistent store.
type Manager struct {
	ttl   time.Duration
	store SessionStore

	nowFunc func() time.Time
}

// NewManager constructs a Manager that issues tokens with the provided
// absolute TTL.
func NewManager(ttl time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{ttl: ttl, store: store, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// Issue creates and persists a fresh session for the user.
func (m *Manager) Issue(ctx context.Context, userID int64) (models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return models.Session{}, err
	}

	session := models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: m.nowFunc().Add(m.ttl),
	}

	if err := m.store.Save(ctx, session); err != nil {
		return models.Session{}, err
	}

	return session, nil
}

// Validate resolves a token to a live session. An expired session is deleted
// opportunistically and reported as expired, so it is unreachable through
// this path even before the next purge runs.
func (m *Manager) Validate(ctx context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, token)
	if err != nil {
		return models.Session{}, err
	}

	if !session.ExpiresAt.After(m.nowFunc()) {
		_ = m.store.Delete(ctx, token)
		return models.Session{}, ErrSessionExpired
	}

	return session, nil
}

// Revoke removes the provided token from the store.
func (m *Manager) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	_ = m.store.Delete(ctx, token)
}

// PurgeExpired deletes every session that has passed its expiry.
func (m *Manager) PurgeExpired(ctx context.Context) error {
	return m.store.PurgeExpired(ctx, m.nowFunc())
}

// TTL reports the absolute session lifetime the manager issues.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func generateToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
