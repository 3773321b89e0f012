package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/neexbeast/nomad-planner/internal/city"
	"github.com/neexbeast/nomad-planner/internal/metrics"
)

var (
	// ErrNetwork covers transport failures, timeouts, non-200 statuses and an
	// open circuit breaker.
	ErrNetwork = errors.New("catalog service unreachable")
	// ErrMalformedResponse means the body did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed catalog response")
)

const (
	defaultTimeout        = 10 * time.Second
	defaultBreakerTimeout = 30 * time.Second
)

// CityProvider is a remote source of cities.
type CityProvider interface {
	ListCities(ctx context.Context) ([]city.City, error)
	FilterCities(ctx context.Context, q city.RemoteQuery) ([]city.City, error)
}

// ClientConfig tunes the HTTP client. Zero values fall back to defaults.
type ClientConfig struct {
	Timeout        time.Duration
	BreakerTimeout time.Duration
}

// HTTPClient talks to a catalog backend exposing GET /cities and
// GET /filter_cities.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewHTTPClient constructs an HTTPClient for baseURL.
func NewHTTPClient(baseURL string, cfg ClientConfig, logger *slog.Logger) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}

	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed", "client", name, "from", from.String(), "to", to.String())
		},
	}

	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

type citiesResponse struct {
	Cities *[]json.RawMessage `json:"cities"`
}

// ListCities fetches the full catalog.
func (c *HTTPClient) ListCities(ctx context.Context) ([]city.City, error) {
	return c.fetch(ctx, "/cities", nil)
}

// FilterCities fetches the cities matching q. Empty query fields are omitted.
func (c *HTTPClient) FilterCities(ctx context.Context, q city.RemoteQuery) ([]city.City, error) {
	params := url.Values{}
	for key, v := range map[string]string{
		"min_temp":  q.MinTemp,
		"max_temp":  q.MaxTemp,
		"max_cost":  q.MaxCost,
		"visa_type": q.VisaType,
	} {
		if v != "" {
			params.Set(key, v)
		}
	}
	return c.fetch(ctx, "/filter_cities", params)
}

func (c *HTTPClient) fetch(ctx context.Context, path string, params url.Values) ([]city.City, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() (any, error) {
		return doGet(ctx, c.client, endpoint)
	})
	metrics.ObserveCatalogRequest(path, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	return c.decode(endpoint, body.([]byte))
}

// decode parses a {"cities": [...]} body. Entries that fail to decode or
// validate are dropped with a log line rather than failing the whole list.
func (c *HTTPClient) decode(endpoint string, body []byte) ([]city.City, error) {
	var raw citiesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding response from %s: %w", ErrMalformedResponse, endpoint, err)
	}
	if raw.Cities == nil {
		return nil, fmt.Errorf("%w: %s: missing cities field", ErrMalformedResponse, endpoint)
	}

	out := make([]city.City, 0, len(*raw.Cities))
	for i, item := range *raw.Cities {
		var ct city.City
		if err := json.Unmarshal(item, &ct); err != nil {
			c.logger.Warn("dropping undecodable city", "endpoint", endpoint, "index", i, "err", err)
			continue
		}
		if err := city.Validate(ct); err != nil {
			c.logger.Warn("dropping invalid city", "endpoint", endpoint, "id", ct.ID, "err", err)
			continue
		}
		out = append(out, ct)
	}
	return out, nil
}

// doGet performs a GET request and returns the body of a 200 response.
func doGet(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", rawURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", rawURL, err)
	}
	return body, nil
}
