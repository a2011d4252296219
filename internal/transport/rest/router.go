// Package rest exposes the patient record service over HTTP.
package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seanrito/patients-backend/internal/transport/middleware"
)

// RouterConfig holds the handlers mounted by NewRouter. A nil Metrics
// handler leaves the metrics path unmounted.
type RouterConfig struct {
	Patients    *PatientHandler
	Health      *HealthHandler
	Metrics     http.Handler
	MetricsPath string
	Logger      *slog.Logger
}

// NewRouter builds the HTTP API. Probes and metrics bypass the access log.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/live", cfg.Health.Live)
	r.Get("/ready", cfg.Health.Ready)
	r.Get("/health", cfg.Health.Health)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Standard(cfg.Logger, Panic))
		r.Route("/patients", cfg.Patients.Routes)
	})

	return r
}
