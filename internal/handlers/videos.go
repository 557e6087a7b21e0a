package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ottbox/backend/internal/auth"
	"github.com/ottbox/backend/internal/logging"
	"github.com/ottbox/backend/internal/models"
	"github.com/ottbox/backend/internal/repositories"
)

const (
	defaultPageLimit = 12
	maxPageLimit     = 50
)

// VideoHandler implements the catalog, streaming, and thumbnail endpoints.
type VideoHandler struct {
	Videos   VideoStore
	History  HistoryStore
	Thumbs   ThumbnailProvider
	Catalog  CatalogSyncer
	MediaDir string
}

type videoRow struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Filename      string  `json:"filename"`
	Description   string  `json:"description"`
	Duration      int     `json:"duration"`
	ThumbnailURL  string  `json:"thumbnailUrl"`
	StreamURL     string  `json:"streamUrl"`
	ResumeSeconds float64 `json:"resumeSeconds"`
}

type videoListResponse struct {
	Videos     []videoRow `json:"videos"`
	Cursor     int        `json:"cursor"`
	Limit      int        `json:"limit"`
	NextCursor int        `json:"nextCursor"`
	HasMore    bool       `json:"hasMore"`
	Query      string     `json:"query"`
}

// List handles GET /api/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Reconcile before answering so listings are fresh even when the
	// background watcher is disabled. A failed sync still serves whatever
	// the catalog last knew.
	if err := h.Catalog.Sync(ctx); err != nil {
		logger.Error("catalog sync before listing failed", "error", err)
	}

	cursor := parseQueryInt(r.URL.Query().Get("cursor"), 0)
	if cursor < 0 {
		cursor = 0
	}
	limit := parseQueryInt(r.URL.Query().Get("limit"), defaultPageLimit)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	// The shared store handle must not be re-entered while a result set is
	// open, so resume positions are buffered up front.
	entries, err := h.History.ListForUser(ctx, identity.UserID)
	if err != nil {
		logger.Error("load resume positions", "error", err, "userId", identity.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	resume := make(map[int64]float64, len(entries))
	for _, entry := range entries {
		resume[entry.VideoID] = entry.Position
	}

	videos, hasMore, err := h.Videos.Query(ctx, query, limit, cursor)
	if err != nil {
		logger.Error("query videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to query videos")
		return
	}

	rows := make([]videoRow, 0, len(videos))
	for _, video := range videos {
		rows = append(rows, videoRow{
			ID:            video.ID,
			Title:         video.Title,
			Filename:      video.Filename,
			Description:   video.Description,
			Duration:      video.Duration,
			ThumbnailURL:  fmt.Sprintf("/api/videos/%d/thumbnail", video.ID),
			StreamURL:     fmt.Sprintf("/api/videos/%d/stream", video.ID),
			ResumeSeconds: resume[video.ID],
		})
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{
		Videos:     rows,
		Cursor:     cursor,
		Limit:      limit,
		NextCursor: cursor + len(rows),
		HasMore:    hasMore,
		Query:      query,
	})
}

// Stream handles GET /api/videos/{id}/stream with single-range semantics.
func (h VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := resolveVideo(w, r, h.Videos)
	if !ok {
		return
	}

	path := filepath.Join(h.MediaDir, video.Filename)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		respondError(ctx, w, http.StatusNotFound, "Video not found")
		return
	}
	size := info.Size()

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if err := copyFileRange(w, path, 0, size); err != nil {
			logger.Warn("stream aborted", "videoId", video.ID, "error", err)
		}
		return
	}

	start, end, err := parseByteRange(rangeHeader, size)
	if err != nil {
		respondError(ctx, w, http.StatusRequestedRangeNotSatisfiable, "Invalid range")
		return
	}
	length := end - start + 1

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if err := copyFileRange(w, path, start, length); err != nil {
		logger.Warn("range stream aborted", "videoId", video.ID, "error", err)
	}
}

// Thumbnail handles GET /api/videos/{id}/thumbnail.
func (h VideoHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := resolveVideo(w, r, h.Videos)
	if !ok {
		return
	}

	src := filepath.Join(h.MediaDir, video.Filename)
	thumbPath, err := h.Thumbs.Ensure(ctx, video.ID, src)
	if err != nil {
		logger.Error("ensure thumbnail", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Thumbnail error")
		return
	}

	info, err := os.Stat(thumbPath)
	if err != nil {
		logger.Error("stat thumbnail", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Thumbnail error")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if err := copyFileRange(w, thumbPath, 0, info.Size()); err != nil {
		logger.Warn("thumbnail send aborted", "videoId", video.ID, "error", err)
	}
}

// resolveVideo parses the {id} parameter and loads the catalog row, writing
// the error response itself when either step fails.
func resolveVideo(w http.ResponseWriter, r *http.Request, videos VideoStore) (models.Video, bool) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(ctx, w, http.StatusBadRequest, "Invalid video id")
		return models.Video{}, false
	}

	video, err := videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
		} else {
			logging.FromContext(ctx).Error("load video", "error", err, "videoId", id)
			respondError(ctx, w, http.StatusInternalServerError, "Failed to load video")
		}
		return models.Video{}, false
	}

	return video, true
}

// copyFileRange sends length bytes of the file starting at offset. The
// destination write path uses io.Copy semantics, so on Linux the transfer
// goes through sendfile when the response writer allows it.
func copyFileRange(w io.Writer, path string, offset, length int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("seek %s: %w", path, err)
		}
	}

	if _, err := io.CopyN(w, f, length); err != nil {
		return fmt.Errorf("send %s: %w", path, err)
	}
	return nil
}

func parseQueryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
