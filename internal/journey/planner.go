package journey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/nomad-planner/internal/city"
	"github.com/neexbeast/nomad-planner/internal/offer"
)

const (
	dateLayout  = "2006-01-02"
	daysInMonth = 30
)

var (
	// ErrInvalidRequest reports a malformed date range or city list.
	ErrInvalidRequest = errors.New("invalid journey request")
	// ErrUnknownCity reports a city id missing from the catalog.
	ErrUnknownCity = errors.New("unknown city")
	// ErrNoOffers reports a leg or stay the provider returned nothing for.
	ErrNoOffers = errors.New("no offers available")
)

// Request asks for a plan visiting Cities in order. The first city is the
// origin; every later city gets a stay. The nights between Start and End are
// split across the stays as evenly as possible, earlier stays first.
type Request struct {
	Cities []string `json:"cities"`
	Start  string   `json:"start"`
	End    string   `json:"end"`
}

// Leg is the cheapest transportation found between two consecutive cities.
type Leg struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	Date  string      `json:"date"`
	Offer offer.Offer `json:"offer"`
}

// Stay is the cheapest accommodation found for one destination.
type Stay struct {
	City          string              `json:"city"`
	CheckIn       string              `json:"check_in"`
	CheckOut      string              `json:"check_out"`
	Nights        int                 `json:"nights"`
	Accommodation offer.Accommodation `json:"accommodation"`
}

// Budget totals a plan. Food, activities and misc are prorated from each
// city's monthly food, entertainment and local transportation costs.
type Budget struct {
	Total          int `json:"total"`
	Transportation int `json:"transportation"`
	Accommodation  int `json:"accommodation"`
	Activities     int `json:"activities"`
	Food           int `json:"food"`
	Misc           int `json:"misc"`
}

// Plan is a priced journey: one leg and one stay per destination, in
// visiting order.
type Plan struct {
	ID     string      `json:"id"`
	Cities []city.City `json:"cities"`
	Start  string      `json:"start"`
	End    string      `json:"end"`
	Legs   []Leg       `json:"legs"`
	Stays  []Stay      `json:"stays"`
	Budget Budget      `json:"budget"`
}

// CityLookup resolves a city id.
type CityLookup interface {
	City(id string) (city.City, bool)
}

// Planner assembles journeys from an offer provider.
type Planner struct {
	provider offer.Provider
	cities   CityLookup
	logger   *slog.Logger
}

// NewPlanner constructs a Planner. cities resolves the ids in a Request.
func NewPlanner(provider offer.Provider, cities CityLookup, logger *slog.Logger) *Planner {
	return &Planner{provider: provider, cities: cities, logger: logger}
}

// Plan builds a journey for req. Legs and stays are priced concurrently.
func (p *Planner) Plan(ctx context.Context, req Request) (Plan, error) {
	cities, start, end, err := p.resolve(req)
	if err != nil {
		return Plan{}, err
	}

	stops := cities[1:]
	nights := splitNights(int(end.Sub(start).Hours()/24), len(stops))
	if nights == nil {
		return Plan{}, fmt.Errorf("%w: need at least one night per destination", ErrInvalidRequest)
	}

	legs := make([]Leg, len(stops))
	stays := make([]Stay, len(stops))

	g, gctx := errgroup.WithContext(ctx)
	checkIn := start
	for i, dest := range stops {
		from := cities[i]
		in := checkIn
		out := in.AddDate(0, 0, nights[i])
		checkIn = out

		g.Go(func() error {
			o, err := p.cheapestOffer(gctx, from, dest, in)
			if err != nil {
				return fmt.Errorf("leg %s to %s: %w", from.ID, dest.ID, err)
			}
			legs[i] = Leg{From: from.Name, To: dest.Name, Date: in.Format(dateLayout), Offer: o}
			return nil
		})
		g.Go(func() error {
			a, err := p.cheapestAccommodation(gctx, dest, in, out)
			if err != nil {
				return fmt.Errorf("stay in %s: %w", dest.ID, err)
			}
			stays[i] = Stay{
				City:          dest.Name,
				CheckIn:       in.Format(dateLayout),
				CheckOut:      out.Format(dateLayout),
				Nights:        nights[i],
				Accommodation: a,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Plan{}, err
	}

	plan := Plan{
		ID:     planID(cities, start),
		Cities: cities,
		Start:  start.Format(dateLayout),
		End:    end.Format(dateLayout),
		Legs:   legs,
		Stays:  stays,
	}
	plan.Budget = budget(legs, stays, stops)

	p.logger.Info("journey planned", "id", plan.ID, "stops", len(stops), "total", plan.Budget.Total)
	return plan, nil
}

func (p *Planner) resolve(req Request) ([]city.City, time.Time, time.Time, error) {
	if len(req.Cities) < 2 {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("%w: at least two cities are required", ErrInvalidRequest)
	}

	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("%w: start date: %w", ErrInvalidRequest, err)
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("%w: end date: %w", ErrInvalidRequest, err)
	}
	if !end.After(start) {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("%w: end must be after start", ErrInvalidRequest)
	}

	cities := make([]city.City, 0, len(req.Cities))
	for i, id := range req.Cities {
		c, ok := p.cities.City(id)
		if !ok {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrUnknownCity, id)
		}
		if i > 0 && req.Cities[i-1] == id {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("%w: %q is listed twice in a row", ErrInvalidRequest, id)
		}
		cities = append(cities, c)
	}
	return cities, start, end, nil
}

// cheapestOffer returns the lowest priced offer across every transportation kind.
func (p *Planner) cheapestOffer(ctx context.Context, from, to city.City, date time.Time) (offer.Offer, error) {
	var best offer.Offer
	found := false
	for _, kind := range offer.Kinds {
		offers, err := p.provider.Offers(ctx, kind, from, to, date)
		if err != nil {
			return offer.Offer{}, err
		}
		sorted := offer.Sort(offers, offer.SortPrice)
		if len(sorted) > 0 && (!found || sorted[0].Price < best.Price) {
			best, found = sorted[0], true
		}
	}
	if !found {
		return offer.Offer{}, ErrNoOffers
	}
	return best, nil
}

func (p *Planner) cheapestAccommodation(ctx context.Context, dest city.City, checkIn, checkOut time.Time) (offer.Accommodation, error) {
	list, err := p.provider.Accommodations(ctx, dest, checkIn, checkOut)
	if err != nil {
		return offer.Accommodation{}, err
	}
	sorted := offer.SortAccommodations(list, offer.SortPrice)
	if len(sorted) == 0 {
		return offer.Accommodation{}, ErrNoOffers
	}
	return sorted[0], nil
}

// splitNights divides total nights over n stays, giving the remainder to the
// earliest stays. It returns nil when a stay would get no night.
func splitNights(total, n int) []int {
	if n <= 0 || total < n {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = total / n
		if i < total%n {
			out[i]++
		}
	}
	return out
}

func budget(legs []Leg, stays []Stay, stops []city.City) Budget {
	var b Budget
	for _, l := range legs {
		b.Transportation += l.Offer.Price
	}
	for i, s := range stays {
		b.Accommodation += s.Accommodation.TotalPrice
		cost := stops[i].Metrics.Cost
		b.Food += prorate(cost.Food, s.Nights)
		b.Activities += prorate(cost.Entertainment, s.Nights)
		b.Misc += prorate(cost.Transportation, s.Nights)
	}
	b.Total = b.Transportation + b.Accommodation + b.Activities + b.Food + b.Misc
	return b
}

func prorate(monthly float64, nights int) int {
	return int(math.Round(monthly * float64(nights) / daysInMonth))
}

func planID(cities []city.City, start time.Time) string {
	ids := make([]string, len(cities))
	for i, c := range cities {
		ids[i] = c.ID
	}
	return strings.Join(ids, "-") + "-" + start.Format("20060102")
}
