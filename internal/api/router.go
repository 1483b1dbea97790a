package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/murmur/internal/api/middleware"
)

// NewRouter builds the control API router
func NewRouter(h *TaskHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.GetStatus)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", h.SubmitTask)
			r.Get("/retrying", h.ListRetrying)
			r.Post("/clear-failed", h.ClearFailed)
			r.Delete("/{id}", h.CancelTask)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
