package api

import (
	"context"

	"github.com/neexbeast/nomad-planner/internal/catalog"
	"github.com/neexbeast/nomad-planner/internal/city"
	"github.com/neexbeast/nomad-planner/internal/journey"
	"github.com/neexbeast/nomad-planner/internal/storage"
)

// CatalogService defines the catalog operations needed by handlers.
type CatalogService interface {
	FetchAll(ctx context.Context) catalog.Track
	FetchFiltered(ctx context.Context, f city.FilterConfiguration) catalog.Track
	UpdateFilters(p city.FilterPatch) city.FilterConfiguration
	ResetFilters() city.FilterConfiguration
	Filters() city.FilterConfiguration
	Snapshot() catalog.Snapshot
	City(id string) (city.City, bool)
	SavePreferences(ctx context.Context) bool
	LoadPreferences(ctx context.Context) bool
	SelectCity(id string) ([]city.City, bool)
	UnselectCity(id string) []city.City
	ClearSelected()
	Selected() []city.City
}

// JourneyPlanner defines the journey planning needed by handlers.
type JourneyPlanner interface {
	Plan(ctx context.Context, req journey.Request) (journey.Plan, error)
}

// CityStore defines the database reads behind the catalog backend routes.
type CityStore interface {
	Query(ctx context.Context, f storage.CityFilter) ([]city.City, error)
	GetCity(ctx context.Context, id string) (*city.City, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
