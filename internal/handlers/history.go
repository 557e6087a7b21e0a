package handlers

import (
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/ottbox/backend/internal/auth"
	"github.com/ottbox/backend/internal/logging"
)

// completionEpsilon is the window, in seconds, before the end of a title
// within which an update is recorded as completed (position 0).
const completionEpsilon = 5

// HistoryHandler implements the watch-progress endpoints.
type HistoryHandler struct {
	Videos  VideoStore
	History HistoryStore
}

type historyRow struct {
	VideoID      int64   `json:"videoId"`
	Position     float64 `json:"position"`
	UpdatedAt    string  `json:"updatedAt"`
	Title        string  `json:"title"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	StreamURL    string  `json:"streamUrl"`
}

// List handles GET /api/history.
func (h HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entries, err := h.History.ListForUser(ctx, identity.UserID)
	if err != nil {
		logging.FromContext(ctx).Error("list watch history", "error", err, "userId", identity.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	rows := make([]historyRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, historyRow{
			VideoID:      entry.VideoID,
			Position:     entry.Position,
			UpdatedAt:    entry.UpdatedAt,
			Title:        entry.Title,
			ThumbnailURL: fmt.Sprintf("/api/videos/%d/thumbnail", entry.VideoID),
			StreamURL:    fmt.Sprintf("/api/videos/%d/stream", entry.VideoID),
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"history": rows})
}

// Update handles POST /api/history/{id}.
func (h HistoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	video, ok := resolveVideo(w, r, h.Videos)
	if !ok {
		return
	}

	var req struct {
		Position *float64 `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == nil || *req.Position < 0 {
		respondError(ctx, w, http.StatusBadRequest, "Invalid position")
		return
	}

	position := *req.Position
	if video.Duration > 0 && position >= float64(video.Duration)-completionEpsilon {
		// Within the completion window the title counts as finished, so the
		// resume position rolls back to the start.
		position = 0
	}

	if err := h.History.Upsert(ctx, identity.UserID, video.ID, position); err != nil {
		logging.FromContext(ctx).Error("update watch history", "error", err, "userId", identity.UserID, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to update history")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}
