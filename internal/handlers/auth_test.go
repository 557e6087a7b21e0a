package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ottbox/backend/internal/auth"
	"github.com/ottbox/backend/internal/models"
	"github.com/ottbox/backend/internal/repositories"
)

type userStoreStub struct {
	byName    map[string]models.User
	byID      map[int64]models.User
	createErr error
	nextID    int64

	createdName string
	createdHash []byte
	createdSalt []byte
}

func newUserStoreStub(users ...models.User) *userStoreStub {
	s := &userStoreStub{byName: make(map[string]models.User), byID: make(map[int64]models.User)}
	for _, u := range users {
		s.byName[u.Username] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *userStoreStub) Create(ctx context.Context, username string, hash, salt []byte) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	if _, ok := s.byName[username]; ok {
		return 0, repositories.ErrConflict
	}
	s.nextID++
	s.createdName = username
	s.createdHash = hash
	s.createdSalt = salt
	user := models.User{ID: s.nextID, Username: username, Hash: hash, Salt: salt}
	s.byName[username] = user
	s.byID[user.ID] = user
	return user.ID, nil
}

func (s *userStoreStub) FindByUsername(ctx context.Context, username string) (models.User, error) {
	user, ok := s.byName[username]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *userStoreStub) FindByID(ctx context.Context, id int64) (models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

type sessionManagerStub struct {
	issued      []int64
	issueErr    error
	session     models.Session
	validateErr error
	revoked     []string
	purges      int
}

func (s *sessionManagerStub) Issue(ctx context.Context, userID int64) (models.Session, error) {
	if s.issueErr != nil {
		return models.Session{}, s.issueErr
	}
	s.issued = append(s.issued, userID)
	return models.Session{Token: "issued-token", UserID: userID, ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

func (s *sessionManagerStub) Validate(ctx context.Context, token string) (models.Session, error) {
	if s.validateErr != nil {
		return models.Session{}, s.validateErr
	}
	return s.session, nil
}

func (s *sessionManagerStub) Revoke(ctx context.Context, token string) {
	s.revoked = append(s.revoked, token)
}

func (s *sessionManagerStub) PurgeExpired(ctx context.Context) error {
	s.purges++
	return nil
}

func (s *sessionManagerStub) TTL() time.Duration {
	return 24 * time.Hour
}

func seededUser(t *testing.T, id int64, username, password string) models.User {
	t.Helper()
	salt, err := auth.GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	return models.User{ID: id, Username: username, Hash: auth.HashPassword(password, salt), Salt: salt}
}

func postJSON(t *testing.T, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
}

func TestLoginSuccess(t *testing.T) {
	user := seededUser(t, 1, "test", "test1234")
	sessions := &sessionManagerStub{}
	handler := AuthHandler{Users: newUserStoreStub(user), Sessions: sessions}

	req := postJSON(t, "/api/auth/login", map[string]string{"username": "test", "password": "test1234"})
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["username"] != "test" {
		t.Fatalf("unexpected body: %+v", resp)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != auth.SessionCookieName || cookie.Value != "issued-token" {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
	if cookie.MaxAge != 86400 || !cookie.HttpOnly || cookie.Path != "/" {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}

	if sessions.purges != 1 {
		t.Fatalf("expected one expired-session purge, got %d", sessions.purges)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	user := seededUser(t, 1, "test", "test1234")
	handler := AuthHandler{Users: newUserStoreStub(user), Sessions: &sessionManagerStub{}}

	cases := []map[string]string{
		{"username": "test", "password": "wrong-password"},
		{"username": "unknown", "password": "test1234"},
	}
	for _, payload := range cases {
		rec := httptest.NewRecorder()
		handler.Login(rec, postJSON(t, "/api/auth/login", payload))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("payload %+v: unexpected status %d", payload, rec.Code)
		}
	}
}

func TestLoginBadPayload(t *testing.T) {
	handler := AuthHandler{Users: newUserStoreStub(), Sessions: &sessionManagerStub{}}

	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for malformed body: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Login(rec, postJSON(t, "/api/auth/login", map[string]string{"username": "test"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for missing password: %d", rec.Code)
	}
}

func TestRegisterSuccess(t *testing.T) {
	users := newUserStoreStub()
	sessions := &sessionManagerStub{}
	handler := AuthHandler{Users: users, Sessions: sessions}

	req := postJSON(t, "/api/auth/register", map[string]string{
		"username":        "alice",
		"password":        "password1",
		"confirmPassword": "password1",
	})
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if users.createdName != "alice" {
		t.Fatalf("unexpected created user: %q", users.createdName)
	}
	if len(users.createdSalt) != auth.SaltLen || len(users.createdHash) != auth.HashLen {
		t.Fatalf("unexpected credential lengths: salt %d hash %d", len(users.createdSalt), len(users.createdHash))
	}
	if !auth.VerifyPassword("password1", users.createdSalt, users.createdHash) {
		t.Fatal("stored hash must verify against the submitted password")
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("expected a session cookie")
	}
}

func TestRegisterValidation(t *testing.T) {
	handler := AuthHandler{Users: newUserStoreStub(), Sessions: &sessionManagerStub{}}

	cases := []map[string]string{
		{"username": "ab", "password": "password1", "confirmPassword": "password1"},
		{"username": "bad name!", "password": "password1", "confirmPassword": "password1"},
		{"username": "alice", "password": "short", "confirmPassword": "short"},
		{"username": "alice", "password": "password1", "confirmPassword": "password2"},
	}
	for _, payload := range cases {
		rec := httptest.NewRecorder()
		handler.Register(rec, postJSON(t, "/api/auth/register", payload))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %+v: unexpected status %d", payload, rec.Code)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	user := seededUser(t, 1, "alice", "password1")
	handler := AuthHandler{Users: newUserStoreStub(user), Sessions: &sessionManagerStub{}}

	rec := httptest.NewRecorder()
	handler.Register(rec, postJSON(t, "/api/auth/register", map[string]string{
		"username":        "alice",
		"password":        "password1",
		"confirmPassword": "password1",
	}))

	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusConflict)
	}
}

func TestLogout(t *testing.T) {
	sessions := &sessionManagerStub{}
	handler := AuthHandler{Users: newUserStoreStub(), Sessions: sessions}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "tok-123"})
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNoContent)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "tok-123" {
		t.Fatalf("unexpected revocations: %v", sessions.revoked)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "" {
		t.Fatalf("expected an expiring cookie, got %+v", cookies)
	}
	if !cookies[0].Expires.Before(time.Now()) {
		t.Fatalf("expected past expiry, got %v", cookies[0].Expires)
	}
}

func TestMe(t *testing.T) {
	handler := AuthHandler{Users: newUserStoreStub(), Sessions: &sessionManagerStub{}}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.Me(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status without identity: %d", rec.Code)
	}

	ctx := auth.WithIdentity(req.Context(), auth.Identity{UserID: 4, Username: "demo"})
	rec = httptest.NewRecorder()
	handler.Me(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Username string `json:"username"`
		UserID   int64  `json:"userId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Username != "demo" || resp.UserID != 4 {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestRequireAuth(t *testing.T) {
	user := models.User{ID: 2, Username: "demo"}
	sessions := &sessionManagerStub{session: models.Session{Token: "tok", UserID: 2, ExpiresAt: time.Now().Add(time.Hour)}}
	mw := RequireAuth(sessions, newUserStoreStub(user))

	var seen auth.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if seen.UserID != 2 || seen.Username != "demo" || seen.Token != "tok" {
		t.Fatalf("unexpected identity: %+v", seen)
	}

	rec = httptest.NewRecorder()
	mw(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status without cookie: %d", rec.Code)
	}

	sessions.validateErr = auth.ErrSessionExpired
	req = httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "tok"})
	rec = httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status for expired session: %d", rec.Code)
	}
}
