package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/nomad-planner/internal/catalog"
	"github.com/neexbeast/nomad-planner/internal/city"
	"github.com/neexbeast/nomad-planner/internal/journey"
	"github.com/neexbeast/nomad-planner/internal/offer"
	"github.com/neexbeast/nomad-planner/internal/storage"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 20
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	catalog CatalogService
	offers  offer.Provider
	planner JourneyPlanner
	store   CityStore
	log     *slog.Logger
}

// NewHandlers constructs Handlers. store may be nil, which disables the
// catalog backend routes.
func NewHandlers(svc CatalogService, offers offer.Provider, planner JourneyPlanner, store CityStore, log *slog.Logger) *Handlers {
	return &Handlers{
		catalog: svc,
		offers:  offers,
		planner: planner,
		store:   store,
		log:     log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// ListCities handles GET /api/v1/cities. It always refetches the catalog; a
// fallback to the seed catalog is reported in the track status, not as an error.
func (h *Handlers) ListCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.FetchAll(r.Context()))
}

// GetCity handles GET /api/v1/cities/{id}. The catalog is loaded first when
// it has never been fetched.
func (h *Handlers) GetCity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, ok := h.lookup(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) lookup(ctx context.Context, id string) (city.City, bool) {
	if c, ok := h.catalog.City(id); ok {
		return c, true
	}
	if h.catalog.Snapshot().All.Status != catalog.StatusIdle {
		return city.City{}, false
	}
	h.catalog.FetchAll(ctx)
	return h.catalog.City(id)
}

type evaluateRequest struct {
	City    city.City                `json:"city"`
	Filters city.FilterConfiguration `json:"filters"`
}

// EvaluateCity handles POST /api/v1/cities/evaluate. Missing filter groups
// take their default bounds.
func (h *Handlers) EvaluateCity(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"passes": city.Passes(req.City, req.Filters.Normalize())})
}

// GetFilters handles GET /api/v1/filters.
func (h *Handlers) GetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Filters())
}

type filtersResponse struct {
	Filters  city.FilterConfiguration `json:"filters"`
	Filtered catalog.Track            `json:"filtered"`
}

// UpdateFilters handles PATCH /api/v1/filters: merge the patch, then refetch
// the filtered view.
func (h *Handlers) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	var patch city.FilterPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	f := h.catalog.UpdateFilters(patch)
	writeJSON(w, http.StatusOK, filtersResponse{Filters: f, Filtered: h.catalog.FetchFiltered(r.Context(), f)})
}

// ResetFilters handles POST /api/v1/filters/reset.
func (h *Handlers) ResetFilters(w http.ResponseWriter, r *http.Request) {
	f := h.catalog.ResetFilters()
	writeJSON(w, http.StatusOK, filtersResponse{Filters: f, Filtered: h.catalog.Snapshot().Filtered})
}

// FilteredCities handles GET /api/v1/filtered-cities.
func (h *Handlers) FilteredCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.FetchFiltered(r.Context(), h.catalog.Filters()))
}

type selectionBody struct {
	Cities []city.City `json:"cities"`
}

// Selection handles GET /api/v1/selection.
func (h *Handlers) Selection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, selectionBody{Cities: h.catalog.Selected()})
}

// SelectCity handles PUT /api/v1/selection/{id}. Selecting twice is a no-op.
func (h *Handlers) SelectCity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.lookup(r.Context(), id); !ok {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}

	selected, ok := h.catalog.SelectCity(id)
	if !ok {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}
	writeJSON(w, http.StatusOK, selectionBody{Cities: selected})
}

// UnselectCity handles DELETE /api/v1/selection/{id}.
func (h *Handlers) UnselectCity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, selectionBody{Cities: h.catalog.UnselectCity(chi.URLParam(r, "id"))})
}

// ClearSelection handles DELETE /api/v1/selection.
func (h *Handlers) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.catalog.ClearSelected()
	w.WriteHeader(http.StatusNoContent)
}

// SavePreferences handles POST /api/v1/preferences/save.
func (h *Handlers) SavePreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"saved": h.catalog.SavePreferences(r.Context())})
}

// LoadPreferences handles POST /api/v1/preferences/load.
func (h *Handlers) LoadPreferences(w http.ResponseWriter, r *http.Request) {
	loaded := h.catalog.LoadPreferences(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"loaded": loaded, "filters": h.catalog.Filters()})
}

// Offers handles GET /api/v1/offers/{kind}?from=&to=&date=&sort=.
func (h *Handlers) Offers(w http.ResponseWriter, r *http.Request) {
	kind, ok := offer.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown transportation kind")
		return
	}

	q := r.URL.Query()
	key, ok := sortKey(q.Get("sort"), offer.SortPrice, offer.ParseOfferSortKey)
	if !ok {
		writeError(w, http.StatusBadRequest, "sort must be one of price, duration, stops")
		return
	}
	date, err := time.Parse(dateLayout, q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	from, ok := h.lookup(r.Context(), q.Get("from"))
	if !ok {
		writeError(w, http.StatusNotFound, "departure city not found")
		return
	}
	to, ok := h.lookup(r.Context(), q.Get("to"))
	if !ok {
		writeError(w, http.StatusNotFound, "arrival city not found")
		return
	}

	offers, err := h.offers.Offers(r.Context(), kind, from, to, date)
	if err != nil {
		h.log.Error("generating offers failed", "kind", kind, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to generate offers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"offers": offer.Sort(offers, key)})
}

// Accommodations handles GET /api/v1/accommodations?destination=&check_in=&check_out=&sort=.
func (h *Handlers) Accommodations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key, ok := sortKey(q.Get("sort"), offer.SortPrice, offer.ParseAccommodationSortKey)
	if !ok {
		writeError(w, http.StatusBadRequest, "sort must be one of price, rating")
		return
	}
	checkIn, err := time.Parse(dateLayout, q.Get("check_in"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, q.Get("check_out"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "check_out must be YYYY-MM-DD")
		return
	}
	dest, ok := h.lookup(r.Context(), q.Get("destination"))
	if !ok {
		writeError(w, http.StatusNotFound, "destination not found")
		return
	}

	list, err := h.offers.Accommodations(r.Context(), dest, checkIn, checkOut)
	if err != nil {
		h.log.Error("generating accommodations failed", "destination", dest.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to generate accommodations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accommodations": offer.SortAccommodations(list, key)})
}

func sortKey(raw string, fallback offer.SortKey, parse func(string) (offer.SortKey, bool)) (offer.SortKey, bool) {
	if raw == "" {
		return fallback, true
	}
	return parse(raw)
}

// PlanJourney handles POST /api/v1/journeys.
func (h *Handlers) PlanJourney(w http.ResponseWriter, r *http.Request) {
	var req journey.Request
	if !decodeBody(w, r, &req) {
		return
	}

	if snap := h.catalog.Snapshot(); snap.All.Status == catalog.StatusIdle {
		h.catalog.FetchAll(r.Context())
	}

	plan, err := h.planner.Plan(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, plan)
	case errors.Is(err, journey.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, journey.ErrUnknownCity):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, journey.ErrNoOffers):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error("journey planning failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to plan journey")
	}
}

// ---- catalog backend ----

type citiesBody struct {
	Cities []city.City `json:"cities"`
}

// BackendListCities handles GET /cities.
func (h *Handlers) BackendListCities(w http.ResponseWriter, r *http.Request) {
	h.backendQuery(w, r, city.RemoteQuery{})
}

// BackendFilterCities handles GET /filter_cities?min_temp=&max_temp=&max_cost=&visa_type=&limit=&offset=.
func (h *Handlers) BackendFilterCities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.backendQuery(w, r, city.RemoteQuery{
		MinTemp:  q.Get("min_temp"),
		MaxTemp:  q.Get("max_temp"),
		MaxCost:  q.Get("max_cost"),
		VisaType: q.Get("visa_type"),
	})
}

func (h *Handlers) backendQuery(w http.ResponseWriter, r *http.Request, rq city.RemoteQuery) {
	limit, ok := intParam(r, "limit", storage.DefaultLimit)
	if !ok || limit < 1 || limit > storage.MaxLimit {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}
	offset, ok := intParam(r, "offset", 0)
	if !ok || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be non-negative")
		return
	}

	f, ok := storage.ParseCityFilter(rq, limit, offset)
	if !ok {
		writeJSON(w, http.StatusOK, citiesBody{Cities: []city.City{}})
		return
	}

	cities, err := h.store.Query(r.Context(), f)
	if err != nil {
		h.log.Error("querying cities failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if cities == nil {
		cities = []city.City{}
	}
	writeJSON(w, http.StatusOK, citiesBody{Cities: cities})
}

// BackendGetCity handles GET /cities/{id}.
func (h *Handlers) BackendGetCity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.store.GetCity(r.Context(), id)
	if err != nil {
		h.log.Error("db get failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func intParam(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

// HealthHandlerFunc returns an http.HandlerFunc that pings every dependency.
// It responds 200 when all are reachable and 503 otherwise.
func HealthHandlerFunc(pingers map[string]Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}

		for name, p := range pingers {
			body[name] = "ok"
			if err := p.Ping(ctx); err != nil {
				log.Error("health check: ping failed", "dependency", name, "err", err)
				body[name] = "error"
				status = http.StatusServiceUnavailable
			}
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}

		writeJSON(w, status, body)
	}
}
