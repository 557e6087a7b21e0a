package handlers

import (
	"net/http"

	"github.com/ottbox/backend/internal/auth"
)

// RequireAuth resolves the session cookie and binds the authenticated
// identity onto the request context, or rejects the request with 401.
func RequireAuth(sessions SessionManager, users UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := auth.TokenFromRequest(r)
			if token == "" {
				respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			session, err := sessions.Validate(ctx, token)
			if err != nil {
				respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			user, err := users.FindByID(ctx, session.UserID)
			if err != nil {
				respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx = auth.WithIdentity(ctx, auth.Identity{
				UserID:   user.ID,
				Username: user.Username,
				Token:    token,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
