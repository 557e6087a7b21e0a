package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ottbox/backend/internal/logging"
)

// loggingWriter records the status and payload size of a response. The byte
// count matters here: a range stream that aborts mid-transfer still logs a
// 206, so the bytes-sent figure is the only trace of the truncation.
type loggingWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (lw *loggingWriter) WriteHeader(status int) {
	if lw.status == 0 {
		lw.status = status
	}
	lw.ResponseWriter.WriteHeader(status)
}

func (lw *loggingWriter) Write(p []byte) (int, error) {
	if lw.status == 0 {
		lw.status = http.StatusOK
	}
	n, err := lw.ResponseWriter.Write(p)
	lw.bytes += int64(n)
	return n, err
}

// RequestLogger tags each request with an id, recovers handler panics, and
// emits one completion line carrying status, bytes sent, and duration. The
// Range header is echoed into the log fields so partial-content requests can
// be correlated with the windows players actually asked for.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()

			fields := []any{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if byteRange := r.Header.Get("Range"); byteRange != "" {
				fields = append(fields, slog.String("range", byteRange))
			}
			reqLogger := base.With(fields...)

			ctx := logging.WithLogger(r.Context(), reqLogger)
			ctx = logging.WithRequestID(ctx, requestID)

			lw := &loggingWriter{ResponseWriter: w}
			w.Header().Set("X-Request-Id", requestID)

			defer func() {
				if rec := recover(); rec != nil {
					reqLogger.Error("panic recovered", "panic", rec)
					// Once a stream has started the headers are gone; only
					// answer with a 500 if nothing was written yet.
					if lw.status == 0 {
						http.Error(lw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
				}
				status := lw.status
				if status == 0 {
					status = http.StatusOK
				}
				reqLogger.Info("request completed",
					slog.Int("status", status),
					slog.Int64("bytes", lw.bytes),
					slog.Duration("duration", time.Since(start)),
				)
			}()

			next.ServeHTTP(lw, r.WithContext(ctx))
		})
	}
}
