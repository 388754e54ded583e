package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oracleconsulting/lightpoint-ingest/internal/api"
	"github.com/oracleconsulting/lightpoint-ingest/internal/api/handlers"
	"github.com/oracleconsulting/lightpoint-ingest/internal/api/middleware"
)

type RouterConfig struct {
	IngestHandler   *handlers.IngestHandler
	SanitizeHandler *handlers.SanitizeHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/ingest", func(r chi.Router) {
			r.Get("/runs", cfg.IngestHandler.Runs)
			r.Get("/stale", cfg.IngestHandler.Stale)
			r.Post("/{source}", cfg.IngestHandler.Trigger)
		})

		r.Post("/sanitize", cfg.SanitizeHandler.Sanitize)
	})

	return r
}
