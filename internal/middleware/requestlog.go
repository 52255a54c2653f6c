package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"snowclone/internal/domain"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}
type requestLoggerKey struct{}

// RequestLog assigns each request an ID and derives a request-scoped logger
// carrying it, so every log line a handler emits for one dashboard call can
// be correlated with the response. An incoming X-Request-ID is reused, which
// keeps IDs stable across a fronting proxy; otherwise a fresh record ID is
// generated.
func RequestLog(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = domain.NewID()
			}
			w.Header().Set(requestIDHeader, id)

			log := base.With("request_id", id, "method", r.Method, "path", r.URL.Path)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			ctx = context.WithValue(ctx, requestLoggerKey{}, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext extracts the request ID from the context.
// Returns an empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggerFromContext returns the request-scoped logger, or fallback when the
// request never passed through RequestLog.
func LoggerFromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(requestLoggerKey{}).(*slog.Logger); ok {
		return log
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
