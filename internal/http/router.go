// Package httpapi assembles the public router: the shared middleware
// chain, the authenticated API surface, and the operational endpoints.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"locregistry/internal/platform/metrics"
	"locregistry/internal/platform/middleware"
)

// Registrar is implemented by module handlers that mount their routes.
type Registrar interface {
	Register(r chi.Router)
}

// Options carries the router dependencies.
type Options struct {
	Logger    *slog.Logger
	Validator middleware.TokenValidator
	Handlers  []Registrar
	Metrics   *metrics.Metrics
	Health    func(r chi.Router)
}

// NewRouter builds the service router. All API routes sit behind
// authentication; health and metrics stay open for probes and scrapers.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(middleware.Instrument(opts.Metrics))
	}
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Group(func(api chi.Router) {
		api.Use(middleware.RequireAuth(opts.Validator, opts.Logger))
		for _, h := range opts.Handlers {
			h.Register(api)
		}
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Health != nil {
		opts.Health(r)
	}

	return r
}
