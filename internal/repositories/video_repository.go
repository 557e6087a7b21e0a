package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ottbox/backend/internal/models"
)

// SQLiteVideoRepository provides SQLite-backed persistence for the media catalog.
type SQLiteVideoRepository struct {
	conn *sql.DB
}

// NewSQLiteVideoRepository constructs a video repository over the shared handle.
func NewSQLiteVideoRepository(conn *sql.DB) *SQLiteVideoRepository {
	return &SQLiteVideoRepository{conn: conn}
}

// Upsert inserts or refreshes a catalog row, unique by filename, and returns
// the row id either way.
func (r *SQLiteVideoRepository) Upsert(ctx context.Context, title, filename, description string, duration int) (int64, error) {
	var id int64
	err := r.conn.QueryRowContext(ctx, `
        INSERT INTO videos (title, filename, description, duration_seconds)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (filename)
        DO UPDATE SET title = excluded.title, description = excluded.description, duration_seconds = excluded.duration_seconds
        RETURNING id
    `, title, filename, description, duration).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert video: %w", err)
	}

	return id, nil
}

// DeleteByFilename removes a single catalog row by its on-disk basename.
func (r *SQLiteVideoRepository) DeleteByFilename(ctx context.Context, filename string) error {
	if _, err := r.conn.ExecContext(ctx, `DELETE FROM videos WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("delete video by filename: %w", err)
	}
	return nil
}

// PruneMissing deletes every catalog row whose filename is not in the live
// set. The live set is staged into a temp table so the delete is a single
// statement on the shared connection, with no surrounding transaction.
func (r *SQLiteVideoRepository) PruneMissing(ctx context.Context, live []string) error {
	if _, err := r.conn.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS live_media (filename TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create live set table: %w", err)
	}
	if _, err := r.conn.ExecContext(ctx, `DELETE FROM live_media`); err != nil {
		return fmt.Errorf("reset live set table: %w", err)
	}

	for _, name := range live {
		if _, err := r.conn.ExecContext(ctx, `INSERT OR IGNORE INTO live_media (filename) VALUES (?)`, name); err != nil {
			return fmt.Errorf("stage live filename: %w", err)
		}
	}

	if _, err := r.conn.ExecContext(ctx, `
        DELETE FROM videos
        WHERE filename NOT IN (SELECT filename FROM live_media)
    `); err != nil {
		return fmt.Errorf("prune missing videos: %w", err)
	}

	return nil
}

// FindByID fetches a single catalog row.
func (r *SQLiteVideoRepository) FindByID(ctx context.Context, id int64) (models.Video, error) {
	row := r.conn.QueryRowContext(ctx, `
        SELECT id, title, filename, IFNULL(description, ''), duration_seconds
        FROM videos
        WHERE id = ?
    `, id)

	var video models.Video
	if err := row.Scan(&video.ID, &video.Title, &video.Filename, &video.Description, &video.Duration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video by id: %w", err)
	}

	return video, nil
}

// Query returns one page of the catalog plus a lookahead flag. It fetches
// limit+1 rows so callers can report whether another page exists without a
// second count query. A non-empty search matches title, filename, and
// description as a case-insensitive substring.
func (r *SQLiteVideoRepository) Query(ctx context.Context, search string, limit, offset int) ([]models.Video, bool, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if search != "" {
		pattern := "%" + search + "%"
		rows, err = r.conn.QueryContext(ctx, `
            SELECT id, title, filename, IFNULL(description, ''), duration_seconds
            FROM videos
            WHERE title LIKE ? OR filename LIKE ? OR IFNULL(description, '') LIKE ?
            ORDER BY id
            LIMIT ? OFFSET ?
        `, pattern, pattern, pattern, limit+1, offset)
	} else {
		rows, err = r.conn.QueryContext(ctx, `
            SELECT id, title, filename, IFNULL(description, ''), duration_seconds
            FROM videos
            ORDER BY id
            LIMIT ? OFFSET ?
        `, limit+1, offset)
	}
	if err != nil {
		return nil, false, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.Title, &video.Filename, &video.Description, &video.Duration); err != nil {
			return nil, false, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate videos: %w", err)
	}

	hasMore := len(videos) > limit
	if hasMore {
		videos = videos[:limit]
	}

	return videos, hasMore, nil
}
