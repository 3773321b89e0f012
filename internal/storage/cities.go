package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/nomad-planner/internal/city"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// CityFilter is a parsed filter_cities query. Nil bounds are not applied.
type CityFilter struct {
	MinTemp  *float64
	MaxTemp  *float64
	MaxCost  *float64
	VisaType *string
	Limit    int
	Offset   int
}

// ParseCityFilter converts the string parameters of q. ok is false when a
// numeric parameter does not parse; callers treat that as an empty result.
// Limit is clamped to [1, MaxLimit] with DefaultLimit for zero, and a
// negative offset becomes zero.
func ParseCityFilter(q city.RemoteQuery, limit, offset int) (f CityFilter, ok bool) {
	parse := func(s string, dst **float64) bool {
		s = strings.TrimSpace(s)
		if s == "" {
			return true
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false
		}
		*dst = &v
		return true
	}

	if !parse(q.MinTemp, &f.MinTemp) || !parse(q.MaxTemp, &f.MaxTemp) || !parse(q.MaxCost, &f.MaxCost) {
		return CityFilter{}, false
	}
	if q.VisaType != "" {
		v := q.VisaType
		f.VisaType = &v
	}

	switch {
	case limit == 0:
		f.Limit = DefaultLimit
	case limit < 1:
		f.Limit = 1
	case limit > MaxLimit:
		f.Limit = MaxLimit
	default:
		f.Limit = limit
	}
	f.Offset = max(offset, 0)
	return f, true
}

// CityRepository provides database access for the city catalog. Metrics are
// stored as a JSONB document using the catalog wire format.
type CityRepository struct {
	q Querier
}

// NewCityRepository constructs a CityRepository backed by the given pool.
func NewCityRepository(pool *pgxpool.Pool) *CityRepository {
	return &CityRepository{q: pool}
}

// NewCityRepositoryWithQuerier constructs a CityRepository with a custom Querier (for tests).
func NewCityRepositoryWithQuerier(q Querier) *CityRepository {
	return &CityRepository{q: q}
}

const cityColumns = `id, name, country, lat, lng, metrics`

// ListCities returns every city ordered by name.
func (r *CityRepository) ListCities(ctx context.Context) ([]city.City, error) {
	const q = `SELECT ` + cityColumns + ` FROM cities ORDER BY name`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying cities: %w", err)
	}
	return scanCities(rows)
}

// FilterCities runs q with the default page. Non-numeric parameters match
// nothing.
func (r *CityRepository) FilterCities(ctx context.Context, q city.RemoteQuery) ([]city.City, error) {
	f, ok := ParseCityFilter(q, 0, 0)
	if !ok {
		return []city.City{}, nil
	}
	return r.Query(ctx, f)
}

// Query returns one page of cities matching f ordered by name. The cost
// bound applies to the sum of the four monthly cost categories.
func (r *CityRepository) Query(ctx context.Context, f CityFilter) ([]city.City, error) {
	const q = `
		SELECT ` + cityColumns + `
		FROM cities
		WHERE ($1::float8 IS NULL OR (metrics->'climate'->>'averageTemperature')::float8 >= $1)
		AND ($2::float8 IS NULL OR (metrics->'climate'->>'averageTemperature')::float8 <= $2)
		AND ($3::float8 IS NULL OR (
			(metrics->'cost'->>'housing')::float8 +
			(metrics->'cost'->>'food')::float8 +
			(metrics->'cost'->>'transportation')::float8 +
			(metrics->'cost'->>'entertainment')::float8
		) <= $3)
		AND ($4::text IS NULL OR metrics->'digitalNomad'->>'visaRequirements' = $4)
		ORDER BY name
		LIMIT $5 OFFSET $6
	`

	rows, err := r.q.Query(ctx, q, f.MinTemp, f.MaxTemp, f.MaxCost, f.VisaType, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("filtering cities: %w", err)
	}
	return scanCities(rows)
}

// GetCity retrieves a city by id. Returns nil, nil when the city is not found.
func (r *CityRepository) GetCity(ctx context.Context, id string) (*city.City, error) {
	const q = `SELECT ` + cityColumns + ` FROM cities WHERE id = $1`

	var c city.City
	var metricsJSON []byte
	err := r.q.QueryRow(ctx, q, id).Scan(
		&c.ID,
		&c.Name,
		&c.Country,
		&c.Coordinates.Lat,
		&c.Coordinates.Lng,
		&metricsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying city %s: %w", id, err)
	}

	if err := json.Unmarshal(metricsJSON, &c.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshaling metrics for city %s: %w", id, err)
	}
	return &c, nil
}

// UpsertCity inserts or replaces a city.
func (r *CityRepository) UpsertCity(ctx context.Context, c city.City) error {
	if err := city.Validate(c); err != nil {
		return err
	}

	metricsJSON, err := json.Marshal(c.Metrics)
	if err != nil {
		return fmt.Errorf("marshaling metrics for city %s: %w", c.ID, err)
	}

	const q = `
		INSERT INTO cities (id, name, country, lat, lng, metrics, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE
		SET name       = EXCLUDED.name,
		    country    = EXCLUDED.country,
		    lat        = EXCLUDED.lat,
		    lng        = EXCLUDED.lng,
		    metrics    = EXCLUDED.metrics,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, q, c.ID, c.Name, c.Country, c.Coordinates.Lat, c.Coordinates.Lng, metricsJSON); err != nil {
		return fmt.Errorf("upserting city %s: %w", c.ID, err)
	}
	return nil
}

// Count returns the number of stored cities.
func (r *CityRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM cities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cities: %w", err)
	}
	return n, nil
}

// SeedIfEmpty inserts cs when the table holds no cities and reports how many
// were written.
func (r *CityRepository) SeedIfEmpty(ctx context.Context, cs []city.City) (int, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for _, c := range cs {
		if err := r.UpsertCity(ctx, c); err != nil {
			return 0, fmt.Errorf("seeding cities: %w", err)
		}
	}
	return len(cs), nil
}

func scanCities(rows pgx.Rows) ([]city.City, error) {
	defer rows.Close()

	out := []city.City{}
	for rows.Next() {
		var c city.City
		var metricsJSON []byte

		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Country,
			&c.Coordinates.Lat,
			&c.Coordinates.Lng,
			&metricsJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning city row: %w", err)
		}

		if err := json.Unmarshal(metricsJSON, &c.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshaling metrics for city %s: %w", c.ID, err)
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating city rows: %w", err)
	}
	return out, nil
}
