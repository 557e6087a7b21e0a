package logging

import (
	"context"
	"log/slog"
	"time"
)

// ctxKey is an unexported type for context keys defined in this package.
type ctxKey string

const (
	loggerKey    ctxKey = "logger"
	requestIDKey ctxKey = "requestID"
)

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID stores a request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves a previously stored request identifier.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// Operation times a named unit of background work; nothing is logged at the
// start. The returned func takes the outcome error and emits the single
// completion entry with the elapsed duration.
func Operation(ctx context.Context, name string) func(error) {
	logger := FromContext(ctx).With(slog.String("op", name))
	start := time.Now()
	return func(err error) {
		if err != nil {
			logger.Error("operation failed", slog.Duration("duration", time.Since(start)), "error", err)
			return
		}
		logger.Debug("operation completed", slog.Duration("duration", time.Since(start)))
	}
}
