package handlers

import (
	"context"
	"time"

	"github.com/ottbox/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, username string, hash, salt []byte) (int64, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}

// SessionManager issues and resolves opaque session tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID int64) (models.Session, error)
	Validate(ctx context.Context, token string) (models.Session, error)
	Revoke(ctx context.Context, token string)
	PurgeExpired(ctx context.Context) error
	TTL() time.Duration
}

// VideoStore captures read access to the media catalog.
type VideoStore interface {
	FindByID(ctx context.Context, id int64) (models.Video, error)
	Query(ctx context.Context, search string, limit, offset int) ([]models.Video, bool, error)
}

// HistoryStore captures persistence for per-user playback positions.
type HistoryStore interface {
	Upsert(ctx context.Context, userID, videoID int64, position float64) error
	ListForUser(ctx context.Context, userID int64) ([]models.WatchEntry, error)
}

// CatalogSyncer reconciles the catalog with the media directory on demand.
type CatalogSyncer interface {
	Sync(ctx context.Context) error
}

// ThumbnailProvider resolves a video to a fresh poster frame on disk.
type ThumbnailProvider interface {
	Ensure(ctx context.Context, videoID int64, srcPath string) (string, error)
}
