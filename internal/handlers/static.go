package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ottbox/backend/internal/logging"
)

// mimeTypes is the fixed extension table for static assets. Anything not
// listed is served as an opaque byte stream.
var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".mp4":  "video/mp4",
}

// StaticHandler serves the front-end bundle for every non-API path.
type StaticHandler struct {
	Dir string
}

func (h StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	urlPath := r.URL.Path
	if strings.Contains(urlPath, "..") {
		respondError(ctx, w, http.StatusForbidden, "Forbidden")
		return
	}
	if urlPath == "/" {
		urlPath = "/index.html"
	}

	full := filepath.Join(h.Dir, filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		respondError(ctx, w, http.StatusNotFound, "Not found")
		return
	}

	ctype, ok := mimeTypes[strings.ToLower(filepath.Ext(full))]
	if !ok {
		ctype = "application/octet-stream"
	}

	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if err := copyFileRange(w, full, 0, info.Size()); err != nil {
		logging.FromContext(ctx).Warn("static send aborted", "path", urlPath, "error", err)
	}
}
