package storage_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/nomad-planner/internal/city"
	"github.com/neexbeast/nomad-planner/internal/storage"
)

func metricsJSON(t *testing.T, c city.City) []byte {
	t.Helper()
	b, err := json.Marshal(c.Metrics)
	require.NoError(t, err)
	return b
}

func cityRow(t *testing.T, c city.City) []any {
	t.Helper()
	return []any{c.ID, c.Name, c.Country, c.Coordinates.Lat, c.Coordinates.Lng, metricsJSON(t, c)}
}

func ptr[T any](v T) *T { return &v }

// ---- ParseCityFilter ----

func TestParseCityFilter(t *testing.T) {
	f, ok := storage.ParseCityFilter(city.RemoteQuery{MinTemp: "15", MaxCost: " 2000 ", VisaType: "E-visa"}, 0, -3)
	require.True(t, ok)
	assert.Equal(t, ptr(15.0), f.MinTemp)
	assert.Nil(t, f.MaxTemp)
	assert.Equal(t, ptr(2000.0), f.MaxCost)
	assert.Equal(t, ptr("E-visa"), f.VisaType)
	assert.Equal(t, storage.DefaultLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)
}

func TestParseCityFilter_ClampsLimit(t *testing.T) {
	f, ok := storage.ParseCityFilter(city.RemoteQuery{}, 500, 10)
	require.True(t, ok)
	assert.Equal(t, storage.MaxLimit, f.Limit)
	assert.Equal(t, 10, f.Offset)

	f, _ = storage.ParseCityFilter(city.RemoteQuery{}, -1, 0)
	assert.Equal(t, 1, f.Limit)
}

func TestParseCityFilter_NonNumeric(t *testing.T) {
	_, ok := storage.ParseCityFilter(city.RemoteQuery{MaxTemp: "warm"}, 0, 0)
	assert.False(t, ok)
}

// ---- ListCities / Query ----

func TestListCities(t *testing.T) {
	seed := city.Seed()
	rows := &fakeRows{rows: [][]any{cityRow(t, seed[0]), cityRow(t, seed[1])}}

	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	got, err := storage.NewCityRepositoryWithQuerier(q).ListCities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed[:2], got)
	assert.True(t, rows.closed)
}

func TestListCities_Empty(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return &fakeRows{}, nil },
	}

	got, err := storage.NewCityRepositoryWithQuerier(q).ListCities(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListCities_QueryError(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return nil, fmt.Errorf("query failed") },
	}

	_, err := storage.NewCityRepositoryWithQuerier(q).ListCities(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying cities")
}

func TestListCities_ScanError(t *testing.T) {
	rows := &fakeRows{rows: [][]any{cityRow(t, city.Seed()[0])}, scanErr: fmt.Errorf("scan failed")}
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	_, err := storage.NewCityRepositoryWithQuerier(q).ListCities(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning")
}

func TestListCities_RowsErr(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return &fakeRows{rowErr: fmt.Errorf("rows iteration error")}, nil
		},
	}

	_, err := storage.NewCityRepositoryWithQuerier(q).ListCities(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterating")
}

func TestListCities_BadJSON(t *testing.T) {
	rows := &fakeRows{rows: [][]any{{"x", "X", "Y", 1.0, 2.0, []byte("not-json")}}}
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	_, err := storage.NewCityRepositoryWithQuerier(q).ListCities(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling")
}

func TestFilterCities_PassesParsedArgs(t *testing.T) {
	var captured []any
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			captured = args
			return &fakeRows{rows: [][]any{cityRow(t, city.Seed()[1])}}, nil
		},
	}

	got, err := storage.NewCityRepositoryWithQuerier(q).FilterCities(context.Background(), city.RemoteQuery{
		MinTemp: "20",
		MaxCost: "1500",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.Len(t, captured, 6)
	assert.Equal(t, ptr(20.0), captured[0])
	assert.Nil(t, captured[1])
	assert.Equal(t, ptr(1500.0), captured[2])
	assert.Nil(t, captured[3])
	assert.Equal(t, storage.DefaultLimit, captured[4])
	assert.Equal(t, 0, captured[5])
}

func TestFilterCities_NonNumericSkipsQuery(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			t.Fatal("query must not run for a non-numeric bound")
			return nil, nil
		},
	}

	got, err := storage.NewCityRepositoryWithQuerier(q).FilterCities(context.Background(), city.RemoteQuery{MaxCost: "cheap"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ---- GetCity ----

func TestGetCity_Found(t *testing.T) {
	want := city.Seed()[0]
	row := cityRow(t, want)

	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
			assert.Equal(t, want.ID, args[0])
			return valuesRow(row...)
		},
	}

	got, err := storage.NewCityRepositoryWithQuerier(q).GetCity(context.Background(), want.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestGetCity_NotFound(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	got, err := storage.NewCityRepositoryWithQuerier(q).GetCity(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetCity_DBError(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(dest ...any) error { return fmt.Errorf("connection reset") }}
		},
	}

	_, err := storage.NewCityRepositoryWithQuerier(q).GetCity(context.Background(), "bali")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying city")
}

// ---- UpsertCity / SeedIfEmpty ----

func TestUpsertCity_Success(t *testing.T) {
	var captured []any
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
			captured = args
			return pgconn.CommandTag{}, nil
		},
	}

	c := city.Seed()[2]
	require.NoError(t, storage.NewCityRepositoryWithQuerier(q).UpsertCity(context.Background(), c))
	require.Len(t, captured, 6)
	assert.Equal(t, c.ID, captured[0])
	assert.Equal(t, c.Name, captured[1])
	assert.JSONEq(t, string(metricsJSON(t, c)), string(captured[5].([]byte)))
}

func TestUpsertCity_RejectsInvalidCity(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			t.Fatal("invalid city must not be written")
			return pgconn.CommandTag{}, nil
		},
	}

	c := city.Seed()[0]
	c.Coordinates.Lng = 500
	assert.Error(t, storage.NewCityRepositoryWithQuerier(q).UpsertCity(context.Background(), c))
}

func TestUpsertCity_DBError(t *testing.T) {
	q := &mockQuerier{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, fmt.Errorf("db error")
		},
	}

	err := storage.NewCityRepositoryWithQuerier(q).UpsertCity(context.Background(), city.Seed()[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upserting city")
}

func countRow(n int) func(context.Context, string, ...any) pgx.Row {
	return func(_ context.Context, _ string, _ ...any) pgx.Row {
		return valuesRow(n)
	}
}

func TestSeedIfEmpty_InsertsWhenEmpty(t *testing.T) {
	inserted := 0
	q := &mockQuerier{
		queryRowFn: countRow(0),
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			inserted++
			return pgconn.CommandTag{}, nil
		},
	}

	n, err := storage.NewCityRepositoryWithQuerier(q).SeedIfEmpty(context.Background(), city.Seed())
	require.NoError(t, err)
	assert.Equal(t, len(city.Seed()), n)
	assert.Equal(t, len(city.Seed()), inserted)
}

func TestSeedIfEmpty_SkipsPopulatedTable(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: countRow(12),
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			t.Fatal("populated table must not be seeded")
			return pgconn.CommandTag{}, nil
		},
	}

	n, err := storage.NewCityRepositoryWithQuerier(q).SeedIfEmpty(context.Background(), city.Seed())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewCityRepository_NotNil(t *testing.T) {
	assert.NotNil(t, storage.NewCityRepository(nil))
}
