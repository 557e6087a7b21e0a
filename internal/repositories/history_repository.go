package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ottbox/backend/internal/models"
)

// SQLiteHistoryRepository provides SQLite-backed persistence for watch history.
type SQLiteHistoryRepository struct {
	conn *sql.DB
}

// NewSQLiteHistoryRepository constructs a history repository over the shared handle.
func NewSQLiteHistoryRepository(conn *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{conn: conn}
}

// Upsert records the playback position for a (user, video) pair,
// last-writer-wins, and stamps the update time.
func (r *SQLiteHistoryRepository) Upsert(ctx context.Context, userID, videoID int64, position float64) error {
	_, err := r.conn.ExecContext(ctx, `
        INSERT INTO watch_history (user_id, video_id, position_seconds, updated_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET position_seconds = excluded.position_seconds, updated_at = CURRENT_TIMESTAMP
    `, userID, videoID, position)
	if err != nil {
		return fmt.Errorf("upsert watch history: %w", err)
	}

	return nil
}

// ListForUser returns the user's history joined with catalog titles, most
// recently updated first. Rows are fully buffered before returning so callers
// are free to issue further queries on the shared connection.
func (r *SQLiteHistoryRepository) ListForUser(ctx context.Context, userID int64) ([]models.WatchEntry, error) {
	rows, err := r.conn.QueryContext(ctx, `
        SELECT w.video_id, w.position_seconds, IFNULL(w.updated_at, ''), IFNULL(v.title, '')
        FROM watch_history w
        JOIN videos v ON v.id = w.video_id
        WHERE w.user_id = ?
        ORDER BY w.updated_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchEntry
	for rows.Next() {
		var entry models.WatchEntry
		if err := rows.Scan(&entry.VideoID, &entry.Position, &entry.UpdatedAt, &entry.Title); err != nil {
			return nil, fmt.Errorf("scan watch entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}
