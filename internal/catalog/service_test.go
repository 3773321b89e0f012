package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/nomad-planner/internal/catalog"
	"github.com/neexbeast/nomad-planner/internal/city"
)

// mockProvider is a hand-written mock for catalog.CityProvider.
type mockProvider struct {
	listFn   func(ctx context.Context) ([]city.City, error)
	filterFn func(ctx context.Context, q city.RemoteQuery) ([]city.City, error)
}

func (m *mockProvider) ListCities(ctx context.Context) ([]city.City, error) {
	if m.listFn == nil {
		return nil, fmt.Errorf("%w: not configured", catalog.ErrNetwork)
	}
	return m.listFn(ctx)
}

func (m *mockProvider) FilterCities(ctx context.Context, q city.RemoteQuery) ([]city.City, error) {
	if m.filterFn == nil {
		return nil, fmt.Errorf("%w: not configured", catalog.ErrNetwork)
	}
	return m.filterFn(ctx, q)
}

// memoryPrefs is an in-memory catalog.PreferenceStore.
type memoryPrefs struct {
	mu    sync.Mutex
	saved *city.FilterConfiguration
	fail  bool
}

func (m *memoryPrefs) Save(_ context.Context, f city.FilterConfiguration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false
	}
	m.saved = &f
	return true
}

func (m *memoryPrefs) Load(_ context.Context) (city.FilterConfiguration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail || m.saved == nil {
		return city.FilterConfiguration{}, false
	}
	return m.saved.Clone(), true
}

var errUnreachable = fmt.Errorf("%w: dial tcp: connection refused", catalog.ErrNetwork)

func cityIDs(cs []city.City) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestService_InitialState(t *testing.T) {
	svc := catalog.NewService(&mockProvider{}, nil, discardLogger())
	snap := svc.Snapshot()

	assert.Equal(t, catalog.StatusIdle, snap.All.Status)
	assert.Equal(t, catalog.StatusIdle, snap.Filtered.Status)
	assert.Empty(t, snap.All.Cities)
	assert.NotNil(t, snap.Filtered.Cities)
	assert.Equal(t, city.DefaultFilters(), snap.Filters)
}

func TestService_FetchAllLoaded(t *testing.T) {
	remote := city.Seed()[:2]
	svc := catalog.NewService(&mockProvider{
		listFn: func(context.Context) ([]city.City, error) { return remote, nil },
	}, nil, discardLogger())

	got := svc.FetchAll(context.Background())
	assert.Equal(t, catalog.StatusLoaded, got.Status)
	assert.Equal(t, cityIDs(remote), cityIDs(got.Cities))
	assert.Empty(t, got.Message)

	c, ok := svc.City(remote[1].ID)
	require.True(t, ok)
	assert.Equal(t, remote[1].Name, c.Name)
}

func TestService_FetchAllFallsBackToSeed(t *testing.T) {
	svc := catalog.NewService(&mockProvider{
		listFn: func(context.Context) ([]city.City, error) { return nil, errUnreachable },
	}, nil, discardLogger())

	got := svc.FetchAll(context.Background())
	assert.Equal(t, catalog.StatusErrored, got.Status)
	assert.Equal(t, cityIDs(city.Seed()), cityIDs(got.Cities))
	assert.NotEmpty(t, got.Message)
}

func TestService_FetchAllMalformedIsEmpty(t *testing.T) {
	svc := catalog.NewService(&mockProvider{
		listFn: func(context.Context) ([]city.City, error) {
			return nil, fmt.Errorf("%w: missing cities field", catalog.ErrMalformedResponse)
		},
	}, nil, discardLogger())

	got := svc.FetchAll(context.Background())
	assert.Equal(t, catalog.StatusLoaded, got.Status)
	assert.Empty(t, got.Cities)
}

func TestService_FetchFilteredForwardsQuery(t *testing.T) {
	var gotQuery city.RemoteQuery
	svc := catalog.NewService(&mockProvider{
		filterFn: func(_ context.Context, q city.RemoteQuery) ([]city.City, error) {
			gotQuery = q
			return city.Seed()[:1], nil
		},
	}, nil, discardLogger())

	f := svc.UpdateFilters(city.FilterPatch{DigitalNomad: &city.DigitalNomadFilter{
		SelectedVisas: []string{"Digital nomad visa", "E-visa"},
	}})
	got := svc.FetchFiltered(context.Background(), f)

	assert.Equal(t, catalog.StatusLoaded, got.Status)
	assert.Len(t, got.Cities, 1)
	assert.Equal(t, city.RemoteQuery{MinTemp: "15", MaxTemp: "35", MaxCost: "2000", VisaType: "Digital nomad visa"}, gotQuery)
}

func TestService_FetchFilteredFallsBackToSeedWhenCatalogNeverLoaded(t *testing.T) {
	svc := catalog.NewService(&mockProvider{}, nil, discardLogger())

	got := svc.FetchFiltered(context.Background(), svc.Filters())

	assert.Equal(t, catalog.StatusErrored, got.Status)
	assert.NotEmpty(t, got.Message)
	ids := cityIDs(got.Cities)
	assert.Contains(t, ids, "bangkok")
	assert.Contains(t, ids, "chiang-mai")
	for _, c := range got.Cities {
		assert.LessOrEqual(t, c.Metrics.Cost.TotalCost(), 2000.0)
	}
}

func TestService_FetchFilteredFallsBackToLoadedCatalog(t *testing.T) {
	cheap := city.Seed()[1]
	svc := catalog.NewService(&mockProvider{
		listFn: func(context.Context) ([]city.City, error) { return []city.City{cheap}, nil },
	}, nil, discardLogger())
	svc.FetchAll(context.Background())

	got := svc.FetchFiltered(context.Background(), svc.Filters())

	assert.Equal(t, catalog.StatusErrored, got.Status)
	assert.Equal(t, []string{cheap.ID}, cityIDs(got.Cities))
}

func TestService_UpdateFiltersMergesOneLevel(t *testing.T) {
	svc := catalog.NewService(&mockProvider{}, nil, discardLogger())

	svc.UpdateFilters(city.FilterPatch{Cost: &city.CostFilter{MaxTotal: city.Num(1200), MaxFood: city.Num(250)}})
	got := svc.UpdateFilters(city.FilterPatch{Cost: &city.CostFilter{MaxTotal: city.Num(1500)}})

	assert.Equal(t, city.Num(1500), got.Cost.MaxTotal)
	assert.Equal(t, city.Num(500), got.Cost.MaxFood)
	assert.Equal(t, city.DefaultFilters().Climate, got.Climate)
}

func TestService_ResetFiltersClearsFilteredView(t *testing.T) {
	svc := catalog.NewService(&mockProvider{
		filterFn: func(context.Context, city.RemoteQuery) ([]city.City, error) { return city.Seed(), nil },
	}, nil, discardLogger())

	f := svc.UpdateFilters(city.FilterPatch{Cost: &city.CostFilter{MaxTotal: city.Num(900)}})
	svc.FetchFiltered(context.Background(), f)

	got := svc.ResetFilters()
	snap := svc.Snapshot()

	assert.Equal(t, city.DefaultFilters(), got)
	assert.Equal(t, catalog.StatusIdle, snap.Filtered.Status)
	assert.Empty(t, snap.Filtered.Cities)
	assert.NotNil(t, snap.Filtered.Cities)
}

func TestService_ResetThenFetchMatchesFreshSession(t *testing.T) {
	provider := &mockProvider{}

	fresh := catalog.NewService(provider, nil, discardLogger())
	want := fresh.FetchFiltered(context.Background(), fresh.Filters())

	used := catalog.NewService(provider, nil, discardLogger())
	used.UpdateFilters(city.FilterPatch{Climate: &city.ClimateFilter{SelectedWeather: []string{city.WeatherCool}}})
	used.FetchFiltered(context.Background(), used.Filters())
	used.ResetFilters()
	got := used.FetchFiltered(context.Background(), used.Filters())

	assert.Equal(t, want, got)
}

func TestService_StaleCompletionIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := []city.City{city.Seed()[0]}
	fast := []city.City{city.Seed()[1]}

	var calls int
	var mu sync.Mutex
	svc := catalog.NewService(&mockProvider{
		listFn: func(context.Context) ([]city.City, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				close(started)
				<-release
				return slow, nil
			}
			return fast, nil
		},
	}, nil, discardLogger())

	done := make(chan catalog.Track)
	go func() { done <- svc.FetchAll(context.Background()) }()
	<-started

	newer := svc.FetchAll(context.Background())
	assert.Equal(t, cityIDs(fast), cityIDs(newer.Cities))

	close(release)
	older := <-done

	assert.Equal(t, cityIDs(fast), cityIDs(older.Cities), "stale completion must not overwrite newer state")
	assert.Equal(t, cityIDs(fast), cityIDs(svc.Snapshot().All.Cities))
}

func TestService_ResetDiscardsInFlightFilteredFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	svc := catalog.NewService(&mockProvider{
		filterFn: func(context.Context, city.RemoteQuery) ([]city.City, error) {
			close(started)
			<-release
			return city.Seed(), nil
		},
	}, nil, discardLogger())

	done := make(chan struct{})
	go func() {
		svc.FetchFiltered(context.Background(), svc.Filters())
		close(done)
	}()
	<-started
	svc.ResetFilters()
	close(release)
	<-done

	snap := svc.Snapshot()
	assert.Equal(t, catalog.StatusIdle, snap.Filtered.Status)
	assert.Empty(t, snap.Filtered.Cities)
}

func TestService_PreferencesRoundTrip(t *testing.T) {
	store := &memoryPrefs{}
	svc := catalog.NewService(&mockProvider{}, store, discardLogger())

	svc.UpdateFilters(city.FilterPatch{Climate: &city.ClimateFilter{
		Temperature:     city.Range{Min: city.Num(10), Max: city.Num(28)},
		SelectedSeasons: []string{"Dry"},
	}})
	want := svc.UpdateFilters(city.FilterPatch{Internet: &city.InternetFilter{SelectedSpeeds: []string{city.SpeedFast}}})
	require.True(t, svc.SavePreferences(context.Background()))

	svc.ResetFilters()
	require.True(t, svc.LoadPreferences(context.Background()))
	assert.Equal(t, want, svc.Filters())
}

func TestService_LoadPreferencesWithoutSavedValue(t *testing.T) {
	svc := catalog.NewService(&mockProvider{}, &memoryPrefs{}, discardLogger())
	svc.UpdateFilters(city.FilterPatch{Cost: &city.CostFilter{MaxTotal: city.Num(999)}})

	assert.False(t, svc.LoadPreferences(context.Background()))
	assert.Equal(t, city.Num(999), svc.Filters().Cost.MaxTotal)
}

func TestService_PreferenceFailuresReportFalse(t *testing.T) {
	failing := catalog.NewService(&mockProvider{}, &memoryPrefs{fail: true}, discardLogger())
	assert.False(t, failing.SavePreferences(context.Background()))
	assert.False(t, failing.LoadPreferences(context.Background()))

	none := catalog.NewService(&mockProvider{}, nil, discardLogger())
	assert.False(t, none.SavePreferences(context.Background()))
	assert.False(t, none.LoadPreferences(context.Background()))
}

func TestService_BootstrapUsesSavedPreferences(t *testing.T) {
	saved := city.DefaultFilters()
	saved.Cost.MaxTotal = city.Num(1100)
	store := &memoryPrefs{saved: &saved}

	var gotQuery city.RemoteQuery
	svc := catalog.NewService(&mockProvider{
		listFn: func(context.Context) ([]city.City, error) { return nil, errors.New("offline") },
		filterFn: func(_ context.Context, q city.RemoteQuery) ([]city.City, error) {
			gotQuery = q
			return nil, errUnreachable
		},
	}, store, discardLogger())

	require.NoError(t, svc.Bootstrap(context.Background()))

	snap := svc.Snapshot()
	assert.Equal(t, catalog.StatusErrored, snap.All.Status)
	assert.Equal(t, "1100", gotQuery.MaxCost)
	assert.Equal(t, []string{"chiang-mai"}, cityIDs(snap.Filtered.Cities))
}

func loadedSeedService(t *testing.T) *catalog.Service {
	t.Helper()
	svc := catalog.NewService(&mockProvider{
		listFn: func(_ context.Context) ([]city.City, error) { return city.Seed(), nil },
	}, nil, discardLogger())
	require.Equal(t, catalog.StatusLoaded, svc.FetchAll(context.Background()).Status)
	return svc
}

func TestService_SelectCityDedupsByID(t *testing.T) {
	svc := loadedSeedService(t)

	_, ok := svc.SelectCity("lisbon")
	require.True(t, ok)
	_, ok = svc.SelectCity("bali")
	require.True(t, ok)
	got, ok := svc.SelectCity("lisbon")
	require.True(t, ok)

	assert.Equal(t, []string{"lisbon", "bali"}, cityIDs(got))
	assert.Equal(t, []string{"lisbon", "bali"}, cityIDs(svc.Snapshot().Selected))
}

func TestService_SelectUnknownCity(t *testing.T) {
	svc := loadedSeedService(t)

	got, ok := svc.SelectCity("atlantis")
	assert.False(t, ok)
	assert.Empty(t, got)
	assert.NotNil(t, svc.Selected())
}

func TestService_UnselectAndClear(t *testing.T) {
	svc := loadedSeedService(t)
	for _, id := range []string{"bangkok", "bali", "lisbon"} {
		_, ok := svc.SelectCity(id)
		require.True(t, ok)
	}

	assert.Equal(t, []string{"bangkok", "lisbon"}, cityIDs(svc.UnselectCity("bali")))
	assert.Equal(t, []string{"bangkok", "lisbon"}, cityIDs(svc.UnselectCity("atlantis")))

	svc.ClearSelected()
	assert.Empty(t, svc.Selected())
	assert.NotNil(t, svc.Snapshot().Selected)
}

func TestService_SelectedIsACopy(t *testing.T) {
	svc := loadedSeedService(t)
	_, ok := svc.SelectCity("bali")
	require.True(t, ok)

	got := svc.Selected()
	got[0].Name = "changed"

	assert.Equal(t, "Bali", svc.Selected()[0].Name)
}
