package app

import (
	"database/sql"

	"github.com/ottbox/backend/internal/auth"
	"github.com/ottbox/backend/internal/catalog"
	"github.com/ottbox/backend/internal/config"
	"github.com/ottbox/backend/internal/handlers"
	"github.com/ottbox/backend/internal/repositories"
	"github.com/ottbox/backend/internal/thumbs"
)

// buildDependencies wires the concrete implementations used by the HTTP
// handlers, and hands back the collaborators the bootstrap path also needs.
func buildDependencies(conn *sql.DB, cfg config.Config) (handlers.Dependencies, *catalog.Syncer, *auth.Manager, *repositories.SQLiteUserRepository) {
	users := repositories.NewSQLiteUserRepository(conn)
	videos := repositories.NewSQLiteVideoRepository(conn)
	history := repositories.NewSQLiteHistoryRepository(conn)
	sessionStore := repositories.NewSQLiteSessionStore(conn)

	sessions := auth.NewManager(cfg.SessionTTL, sessionStore)
	syncer := catalog.NewSyncer(cfg.MediaDir, videos)
	generator := thumbs.NewGenerator(cfg.FFmpegPath, cfg.ThumbDir)

	deps := handlers.Dependencies{
		Users:     users,
		Sessions:  sessions,
		Videos:    videos,
		History:   history,
		Catalog:   syncer,
		Thumbs:    generator,
		MediaDir:  cfg.MediaDir,
		StaticDir: cfg.StaticDir,
	}

	return deps, syncer, sessions, users
}
