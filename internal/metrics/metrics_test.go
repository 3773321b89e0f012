package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/nomad-planner/internal/metrics"
)

func TestRegistryAndHandler(t *testing.T) {
	reg := metrics.InitRegistry()

	metrics.ObserveHTTP("/cities", "GET", 200, 12*time.Millisecond)
	metrics.ObserveCatalog("all", "remote")
	metrics.ObservePreference("save", "ok")

	rr := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "nomad_http_requests_total")
	assert.Contains(t, string(body), "nomad_catalog_fetches_total")
	assert.Contains(t, string(body), "nomad_preference_ops_total")
}

func TestObserveOffersAddsCount(t *testing.T) {
	before := testutil.ToFloat64(metrics.OffersGenerated.WithLabelValues("testkind"))
	metrics.ObserveOffers("testkind", 7)
	after := testutil.ToFloat64(metrics.OffersGenerated.WithLabelValues("testkind"))

	assert.Equal(t, 7.0, after-before)
}
