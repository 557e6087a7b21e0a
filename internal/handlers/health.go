package handlers

import "net/http"

// HealthHandler exposes a liveness probe.
type HealthHandler struct{}

// Handle responds with a static OK payload.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
