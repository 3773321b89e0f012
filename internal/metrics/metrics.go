package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts served requests by route pattern, method and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nomad", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	// HTTPLatency observes request duration by route pattern and method.
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nomad", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	// CatalogFetches counts catalog fetch completions by track and outcome.
	CatalogFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nomad", Name: "catalog_fetches_total", Help: "City catalog fetches."},
		[]string{"track", "outcome"}, // outcome: remote|fallback|malformed|stale
	)
	// CatalogLatency observes remote catalog round trips by endpoint.
	CatalogLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nomad", Name: "catalog_request_duration_seconds",
			Help:    "Catalog service request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	// OffersGenerated counts synthesized offers by kind.
	OffersGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nomad", Name: "offers_generated_total", Help: "Synthetic offers generated."},
		[]string{"kind"},
	)
	// PreferenceOps counts preference saves and loads by result.
	PreferenceOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nomad", Name: "preference_ops_total", Help: "Preference store operations."},
		[]string{"op", "result"}, // result: ok|miss|error
	)
)

// InitRegistry returns a private registry holding every collector above.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, CatalogFetches, CatalogLatency, OffersGenerated, PreferenceOps)
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveCatalog records how a catalog fetch on track completed.
func ObserveCatalog(track, outcome string) {
	CatalogFetches.WithLabelValues(track, outcome).Inc()
}

// ObserveCatalogRequest records the duration of one remote catalog call.
func ObserveCatalogRequest(endpoint string, dur time.Duration) {
	CatalogLatency.WithLabelValues(endpoint).Observe(dur.Seconds())
}

// ObserveOffers adds n generated offers of kind.
func ObserveOffers(kind string, n int) {
	OffersGenerated.WithLabelValues(kind).Add(float64(n))
}

// ObservePreference records a preference operation result.
func ObservePreference(op, result string) {
	PreferenceOps.WithLabelValues(op, result).Inc()
}
