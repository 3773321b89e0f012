package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/neexbeast/nomad-planner/internal/metrics"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Token enables bearer auth on every /api/v1 route except health when set.
	Token string
	// RateLimitPerMinute limits requests per client IP. Zero disables limiting.
	RateLimitPerMinute int
	// Pingers are checked by the health endpoint, keyed by dependency name.
	Pingers map[string]Pinger
	// Registry is served at /metrics when set.
	Registry *prometheus.Registry
	Log      *slog.Logger
}

// NewRouter builds and returns the Chi router with all routes configured.
// Health and metrics are unauthenticated. The catalog backend routes are
// mounted only when the handlers have a CityStore.
func NewRouter(handlers *Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(Instrument)
	if opts.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
	}

	r.Get("/api/v1/health", HealthHandlerFunc(opts.Pingers, opts.Log))
	if opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(opts.Registry))
	}

	r.Group(func(r chi.Router) {
		if opts.Token != "" {
			r.Use(BearerAuth(opts.Token))
		}

		r.Get("/api/v1/cities", handlers.ListCities)
		r.Get("/api/v1/cities/{id}", handlers.GetCity)
		r.Post("/api/v1/cities/evaluate", handlers.EvaluateCity)

		r.Get("/api/v1/filters", handlers.GetFilters)
		r.Patch("/api/v1/filters", handlers.UpdateFilters)
		r.Post("/api/v1/filters/reset", handlers.ResetFilters)
		r.Get("/api/v1/filtered-cities", handlers.FilteredCities)

		r.Get("/api/v1/selection", handlers.Selection)
		r.Put("/api/v1/selection/{id}", handlers.SelectCity)
		r.Delete("/api/v1/selection/{id}", handlers.UnselectCity)
		r.Delete("/api/v1/selection", handlers.ClearSelection)

		r.Post("/api/v1/preferences/save", handlers.SavePreferences)
		r.Post("/api/v1/preferences/load", handlers.LoadPreferences)

		r.Get("/api/v1/offers/{kind}", handlers.Offers)
		r.Get("/api/v1/accommodations", handlers.Accommodations)
		r.Post("/api/v1/journeys", handlers.PlanJourney)
	})

	if handlers.store != nil {
		r.Get("/cities", handlers.BackendListCities)
		r.Get("/cities/{id}", handlers.BackendGetCity)
		r.Get("/filter_cities", handlers.BackendFilterCities)
	}

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
