package handlers

import (
	"errors"
	"net/http"
	"regexp"

	json "github.com/goccy/go-json"

	"github.com/ottbox/backend/internal/auth"
	"github.com/ottbox/backend/internal/logging"
	"github.com/ottbox/backend/internal/repositories"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// AuthHandler implements the session endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
}

type credentialsRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Login handles POST /api/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Missing credentials")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "Missing credentials")
		return
	}

	user, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logger.Error("login user lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Login failed")
		return
	}

	if !auth.VerifyPassword(req.Password, user.Salt, user.Hash) {
		respondError(ctx, w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Expired sessions ride along on the login path so the table never
	// accumulates garbage even without a dedicated purge schedule.
	if err := h.Sessions.PurgeExpired(ctx); err != nil {
		logger.Warn("purge expired sessions", "error", err)
	}

	session, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	auth.SetSessionCookie(w, session.Token, h.Sessions.TTL())
	respondJSON(ctx, w, http.StatusOK, map[string]string{"username": user.Username})
}

// Register handles POST /api/auth/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Missing credentials")
		return
	}

	if !usernamePattern.MatchString(req.Username) {
		respondError(ctx, w, http.StatusBadRequest, "Username must be 3-32 characters of letters, digits, or underscore")
		return
	}
	if len(req.Password) < 8 || len(req.Password) > 128 {
		respondError(ctx, w, http.StatusBadRequest, "Password must be 8-128 characters")
		return
	}
	if req.Password != req.ConfirmPassword {
		respondError(ctx, w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		logger.Error("generate salt", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Registration failed")
		return
	}
	hash := auth.HashPassword(req.Password, salt)

	userID, err := h.Users.Create(ctx, req.Username, hash, salt)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "Username already taken")
			return
		}
		logger.Error("create user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Registration failed")
		return
	}

	session, err := h.Sessions.Issue(ctx, userID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	auth.SetSessionCookie(w, session.Token, h.Sessions.TTL())
	respondJSON(ctx, w, http.StatusOK, map[string]string{"username": req.Username})
}

// Logout handles POST /api/auth/logout.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.Sessions.Revoke(r.Context(), token)
	}
	auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"username": identity.Username,
		"userId":   identity.UserID,
	})
}
