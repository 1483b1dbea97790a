package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/murmur/internal/api/shared"
	"github.com/phrazzld/murmur/internal/platform/logger"
)

// NewTraceMiddleware adds a trace ID and a request-scoped logger carrying it
// to the request context. Apply it before any handler that logs.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			log := base.With("trace_id", shared.GetTraceID(ctx))

			log.Debug("request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr)

			ctx = logger.WithLogger(ctx, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
