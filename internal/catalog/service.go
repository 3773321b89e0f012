package catalog

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/nomad-planner/internal/city"
	"github.com/neexbeast/nomad-planner/internal/metrics"
)

// Status is the lifecycle state of one catalog track.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

const (
	msgSeedFallback  = "City catalog is unreachable; showing built-in cities."
	msgLocalFallback = "City catalog is unreachable; results were filtered locally."
)

// Track is a point-in-time view of the full catalog or the filtered view.
type Track struct {
	Status  Status      `json:"status"`
	Cities  []city.City `json:"cities"`
	Message string      `json:"message,omitempty"`
}

// Snapshot is the complete service state.
type Snapshot struct {
	All      Track                    `json:"all"`
	Filtered Track                    `json:"filtered"`
	Filters  city.FilterConfiguration `json:"filters"`
	Selected []city.City              `json:"selected"`
}

// PreferenceStore persists the filter configuration between sessions.
type PreferenceStore interface {
	Save(ctx context.Context, f city.FilterConfiguration) bool
	Load(ctx context.Context) (city.FilterConfiguration, bool)
}

// track holds a Track plus its sequence bookkeeping. issued counts fetches
// started; applied is the sequence of the last completion written.
type track struct {
	Track
	issued  uint64
	applied uint64
}

func (t *track) begin() uint64 {
	t.issued++
	t.Status = StatusLoading
	return t.issued
}

// stale reports whether a completion for seq must be discarded because a
// newer completion was already applied.
func (t *track) stale(seq uint64) bool {
	return seq < t.applied
}

func (t *track) view() Track {
	v := t.Track
	v.Cities = slices.Clone(t.Cities)
	if v.Cities == nil {
		v.Cities = []city.City{}
	}
	return v
}

// Service owns the city catalog: the full list, the filtered view and the
// active filter configuration. It is safe for concurrent use.
type Service struct {
	provider CityProvider
	prefs    PreferenceStore
	logger   *slog.Logger

	mu       sync.Mutex
	all      track
	filtered track
	filters  city.FilterConfiguration
	// selected is the comparison set, in selection order, unique by id.
	selected []city.City
}

// NewService constructs a Service. prefs may be nil, in which case
// preference operations report failure.
func NewService(provider CityProvider, prefs PreferenceStore, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		prefs:    prefs,
		logger:   logger,
		all:      track{Track: Track{Status: StatusIdle, Cities: []city.City{}}},
		filtered: track{Track: Track{Status: StatusIdle, Cities: []city.City{}}},
		filters:  city.DefaultFilters(),
	}
}

// FetchAll loads the full catalog. When the provider is unreachable the seed
// catalog replaces it for this load and the track is marked errored.
func (s *Service) FetchAll(ctx context.Context) Track {
	s.mu.Lock()
	seq := s.all.begin()
	s.mu.Unlock()

	cities, err := s.provider.ListCities(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.all.stale(seq) {
		s.logger.Debug("discarding stale catalog completion", "seq", seq, "applied", s.all.applied)
		metrics.ObserveCatalog("all", "stale")
		return s.all.view()
	}
	s.all.applied = seq

	switch {
	case err == nil:
		s.all.Track = Track{Status: StatusLoaded, Cities: cities}
		metrics.ObserveCatalog("all", "remote")
	case errors.Is(err, ErrMalformedResponse):
		s.logger.Error("catalog returned malformed response", "err", err)
		s.all.Track = Track{Status: StatusLoaded, Cities: []city.City{}}
		metrics.ObserveCatalog("all", "malformed")
	default:
		s.logger.Warn("catalog fetch failed, using seed catalog", "err", err)
		s.all.Track = Track{Status: StatusErrored, Cities: city.Seed(), Message: msgSeedFallback}
		metrics.ObserveCatalog("all", "fallback")
	}
	return s.all.view()
}

// FetchFiltered asks the provider for the cities matching f. On failure the
// filter is evaluated locally against the full catalog, or against the seed
// catalog when the full catalog was never loaded.
func (s *Service) FetchFiltered(ctx context.Context, f city.FilterConfiguration) Track {
	f = f.Normalize()

	s.mu.Lock()
	seq := s.filtered.begin()
	s.mu.Unlock()

	cities, err := s.provider.FilterCities(ctx, city.QueryFor(f))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filtered.stale(seq) {
		s.logger.Debug("discarding stale filtered completion", "seq", seq, "applied", s.filtered.applied)
		metrics.ObserveCatalog("filtered", "stale")
		return s.filtered.view()
	}
	s.filtered.applied = seq

	switch {
	case err == nil:
		s.filtered.Track = Track{Status: StatusLoaded, Cities: cities}
		metrics.ObserveCatalog("filtered", "remote")
	case errors.Is(err, ErrMalformedResponse):
		s.logger.Error("catalog returned malformed filtered response", "err", err)
		s.filtered.Track = Track{Status: StatusLoaded, Cities: []city.City{}}
		metrics.ObserveCatalog("filtered", "malformed")
	default:
		s.logger.Warn("filtered fetch failed, filtering locally", "err", err)
		s.filtered.Track = Track{Status: StatusErrored, Cities: city.Apply(s.localBase(), f), Message: msgLocalFallback}
		metrics.ObserveCatalog("filtered", "fallback")
	}
	return s.filtered.view()
}

// localBase returns the catalog used for local filtering. Caller holds s.mu.
func (s *Service) localBase() []city.City {
	if s.all.applied == 0 {
		return city.Seed()
	}
	return s.all.Cities
}

// UpdateFilters merges p into the active configuration and returns the result.
func (s *Service) UpdateFilters(p city.FilterPatch) city.FilterConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = s.filters.Merge(p)
	return s.filters.Clone()
}

// ResetFilters restores the default configuration and clears the filtered
// view. Fetches still in flight for the filtered view are discarded.
func (s *Service) ResetFilters() city.FilterConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = city.DefaultFilters()
	s.filtered.issued++
	s.filtered.applied = s.filtered.issued
	s.filtered.Track = Track{Status: StatusIdle, Cities: []city.City{}}
	return s.filters.Clone()
}

// Filters returns a copy of the active configuration.
func (s *Service) Filters() city.FilterConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// Snapshot returns a copy of the whole service state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		All:      s.all.view(),
		Filtered: s.filtered.view(),
		Filters:  s.filters.Clone(),
		Selected: s.selectedView(),
	}
}

// SelectCity adds the catalog city id to the comparison set. Selecting a city
// that is already in the set keeps its original position. ok is false when
// id is not in the loaded catalog.
func (s *Service) SelectCity(id string) (selected []city.City, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := city.Find(s.all.Cities, id)
	if !ok {
		return s.selectedView(), false
	}
	if _, dup := city.Find(s.selected, id); !dup {
		s.selected = append(s.selected, c)
	}
	return s.selectedView(), true
}

// UnselectCity removes id from the comparison set. Unknown ids are ignored.
func (s *Service) UnselectCity(id string) []city.City {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = slices.DeleteFunc(s.selected, func(c city.City) bool { return c.ID == id })
	return s.selectedView()
}

// ClearSelected empties the comparison set.
func (s *Service) ClearSelected() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// Selected returns the comparison set in selection order.
func (s *Service) Selected() []city.City {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedView()
}

// selectedView copies the comparison set. Caller holds s.mu.
func (s *Service) selectedView() []city.City {
	out := slices.Clone(s.selected)
	if out == nil {
		out = []city.City{}
	}
	return out
}

// City looks a city up by id in the loaded catalog.
func (s *Service) City(id string) (city.City, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return city.Find(s.all.Cities, id)
}

// SavePreferences persists the active configuration.
func (s *Service) SavePreferences(ctx context.Context) bool {
	if s.prefs == nil {
		return false
	}
	return s.prefs.Save(ctx, s.Filters())
}

// LoadPreferences replaces the active configuration with the saved one.
// It reports false and leaves the configuration untouched when nothing was
// saved or the store failed.
func (s *Service) LoadPreferences(ctx context.Context) bool {
	if s.prefs == nil {
		return false
	}
	f, ok := s.prefs.Load(ctx)
	if !ok {
		return false
	}

	s.mu.Lock()
	s.filters = f.Normalize()
	s.mu.Unlock()
	return true
}

// Bootstrap loads the full catalog and the saved preferences concurrently,
// then populates the filtered view with the resulting configuration.
func (s *Service) Bootstrap(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t := s.FetchAll(gctx)
		s.logger.Info("catalog loaded", "status", t.Status, "cities", len(t.Cities))
		return nil
	})
	g.Go(func() error {
		if s.LoadPreferences(gctx) {
			s.logger.Info("saved preferences restored")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := s.FetchFiltered(ctx, s.Filters())
	s.logger.Info("filtered view loaded", "status", t.Status, "cities", len(t.Cities))
	return nil
}
