package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ottbox/backend/internal/models"
)

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]models.Session)}
}

func (s *memorySessionStore) Save(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *memorySessionStore) Find(ctx context.Context, token string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *memorySessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, token)
	return nil
}

func (s *memorySessionStore) PurgeExpired(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(now) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func TestManagerIssueAndValidate(t *testing.T) {
	store := newMemorySessionStore()
	manager := NewManager(24*time.Hour, store)

	session, err := manager.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(session.Token) < 43 {
		t.Fatalf("token too short: %d chars", len(session.Token))
	}

	resolved, err := manager.Validate(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if resolved.UserID != 7 {
		t.Fatalf("unexpected user: got %d want 7", resolved.UserID)
	}
}

func TestManagerValidateExpired(t *testing.T) {
	store := newMemorySessionStore()
	manager := NewManager(time.Hour, store)

	session, err := manager.Issue(context.Background(), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.nowFunc = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	if _, err := manager.Validate(context.Background(), session.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}

	// The expired session must also have been removed from the store.
	if _, err := store.Find(context.Background(), session.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session to be deleted, got %v", err)
	}
}

func TestManagerValidateUnknown(t *testing.T) {
	manager := NewManager(time.Hour, newMemorySessionStore())

	if _, err := manager.Validate(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found for empty token, got %v", err)
	}
	if _, err := manager.Validate(context.Background(), "bogus"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found for unknown token, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	store := newMemorySessionStore()
	manager := NewManager(time.Hour, store)

	session, err := manager.Issue(context.Background(), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.Revoke(context.Background(), session.Token)

	if _, err := manager.Validate(context.Background(), session.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected revoked token to be unknown, got %v", err)
	}
}

func TestManagerPurgeExpired(t *testing.T) {
	store := newMemorySessionStore()
	manager := NewManager(time.Hour, store)

	live, err := manager.Issue(context.Background(), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	stale := models.Session{Token: "stale", UserID: 2, ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	if err := store.Save(context.Background(), stale); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := manager.PurgeExpired(context.Background()); err != nil {
		t.Fatalf("purge: %v", err)
	}

	if _, err := store.Find(context.Background(), stale.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("expected stale session to be purged")
	}
	if _, err := store.Find(context.Background(), live.Token); err != nil {
		t.Fatalf("expected live session to survive, got %v", err)
	}
}
