package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Dependencies aggregates collaborators required by the HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Sessions SessionManager
	Videos   VideoStore
	History  HistoryStore
	Catalog  CatalogSyncer
	Thumbs   ThumbnailProvider

	MediaDir  string
	StaticDir string
}

// RegisterRoutes wires the API and static-asset handlers into the router.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	health := HealthHandler{}
	authHandler := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	videoHandler := VideoHandler{
		Videos:   deps.Videos,
		History:  deps.History,
		Thumbs:   deps.Thumbs,
		Catalog:  deps.Catalog,
		MediaDir: deps.MediaDir,
	}
	historyHandler := HistoryHandler{Videos: deps.Videos, History: deps.History}
	static := StaticHandler{Dir: deps.StaticDir}

	r.Get("/healthz", health.Handle)

	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/logout", authHandler.Logout)

	r.Group(func(pr chi.Router) {
		pr.Use(RequireAuth(deps.Sessions, deps.Users))

		pr.Get("/api/auth/me", authHandler.Me)
		pr.Get("/api/videos", videoHandler.List)
		pr.Get("/api/videos/{id}/stream", videoHandler.Stream)
		pr.Get("/api/videos/{id}/thumbnail", videoHandler.Thumbnail)
		pr.Get("/api/history", historyHandler.List)
		pr.Post("/api/history/{id}", historyHandler.Update)
	})

	// Unmatched /api paths get the JSON 404; everything else falls through
	// to the front-end bundle.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/") {
			respondError(req.Context(), w, http.StatusNotFound, "Not found")
			return
		}
		static.ServeHTTP(w, req)
	})
}
