package offer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/neexbeast/nomad-planner/internal/city"
	"github.com/neexbeast/nomad-planner/internal/metrics"
)

const dateLayout = "2006-01-02"

// profile describes how offers of one kind are drawn.
type profile struct {
	prefix             string
	minCount, maxCount int
	// Departure hours are drawn from [firstHour, lastHour).
	firstHour, lastHour int
	// Whole-hour duration bounds, inclusive. Minutes are added on top.
	minHours, maxHours int
	roster             []string
	stops              func(r *rand.Rand) int
	base               func(hours float64, stops int) float64
}

var profiles = map[Kind]profile{
	KindFlight: {
		prefix:   "FL",
		minCount: 5, maxCount: 8,
		firstHour: 6, lastHour: 22,
		minHours: 1, maxHours: 5,
		roster: []string{"SkyWings", "Global Air", "Ocean Pacific", "Atlas Airways", "Northern Flights"},
		stops: func(r *rand.Rand) int {
			if r.Float64() > 0.6 {
				return 1 + r.IntN(2)
			}
			return 0
		},
		base: func(h float64, stops int) float64 { return 200 + h*50 - float64(stops)*30 },
	},
	KindTrain: {
		prefix:   "TR",
		minCount: 4, maxCount: 7,
		firstHour: 5, lastHour: 23,
		minHours: 2, maxHours: 8,
		roster: []string{"EuroRail", "Express Transit", "Velocity Rail", "Continental Railways", "Metro Connect"},
		stops:  func(r *rand.Rand) int { return r.IntN(4) },
		base:   func(h float64, stops int) float64 { return 80 + h*25 - float64(stops)*5 },
	},
	KindBus: {
		prefix:   "BU",
		minCount: 3, maxCount: 6,
		firstHour: 4, lastHour: 22,
		minHours: 3, maxHours: 12,
		roster: []string{"GreyDog", "Continental Express", "EuroCoach", "InterCity Bus", "TransNational"},
		stops:  func(r *rand.Rand) int { return r.IntN(5) },
		base:   func(h float64, stops int) float64 { return 30 + h*10 - float64(stops)*2 },
	},
}

var (
	trainClasses  = []TrainClass{ClassEconomy, ClassBusiness, ClassFirst}
	busAmenities  = []string{"WiFi", "Power Outlets", "Reclining Seats", "Restroom", "Snacks", "Entertainment System", "Extra Legroom", "Air Conditioning"}
	lodgingTypes  = []LodgingType{LodgingHotel, LodgingHostel, LodgingApartment}
	hotelPrefixes = []string{"Grand", "Royal", "City", "Central", "Park", "Harbor", "Ocean", "Golden", "Imperial"}
	hotelSuffixes = []string{"Hotel", "Resort", "Inn", "Suites", "Lodge", "Palace", "Plaza"}
)

// lodging describes how accommodations of one type are drawn.
type lodging struct {
	names        []string
	basePrice    float64
	amenities    []string
	minAmenities int
	maxAmenities int
}

var lodgings = map[LodgingType]lodging{
	LodgingHotel: {
		basePrice:    100,
		amenities:    []string{"Free WiFi", "Pool", "Gym", "Restaurant", "Room Service", "Spa", "Bar", "Airport Shuttle", "Breakfast included"},
		minAmenities: 4, maxAmenities: 6,
	},
	LodgingHostel: {
		names:        []string{"Backpackers Haven", "Wanderers Hostel", "Nomad House", "Global Hostel", "Travelers Rest"},
		basePrice:    30,
		amenities:    []string{"Free WiFi", "Shared Kitchen", "Laundry", "Common Room", "Breakfast included", "Lockers", "Bike Rental"},
		minAmenities: 3, maxAmenities: 5,
	},
	LodgingApartment: {
		names:        []string{"Modern Downtown Apartment", "City Center Suites", "Luxury Loft", "Urban Apartments", "Executive Suites"},
		basePrice:    80,
		amenities:    []string{"Free WiFi", "Kitchen", "Washing Machine", "Air Conditioning", "TV", "Balcony", "Parking"},
		minAmenities: 3, maxAmenities: 5,
	},
}

// ErrUnknownKind is returned for a transportation kind with no profile.
var ErrUnknownKind = errors.New("unknown offer kind")

// Synthesizer generates plausible offers from a random source. It holds no
// inventory: every call may return a different result set. It is safe for
// concurrent use.
type Synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer returns a Synthesizer whose output is fully determined by seed.
func NewSynthesizer(seed uint64) *Synthesizer {
	return &Synthesizer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomSynthesizer returns a Synthesizer seeded from the runtime source.
func NewRandomSynthesizer() *Synthesizer {
	return NewSynthesizer(rand.Uint64())
}

// Offers generates transportation offers of the given kind, sorted by price.
func (s *Synthesizer) Offers(ctx context.Context, kind Kind, from, to city.City, date time.Time) ([]Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := profiles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	s.mu.Lock()
	out := s.generate(kind, p, from.Name, to.Name, date)
	s.mu.Unlock()

	metrics.ObserveOffers(string(kind), len(out))
	return out, nil
}

// Flights generates flight offers between two cities.
func (s *Synthesizer) Flights(from, to city.City, date time.Time) []Offer {
	out, _ := s.Offers(context.Background(), KindFlight, from, to, date)
	return out
}

// Trains generates train offers between two cities.
func (s *Synthesizer) Trains(from, to city.City, date time.Time) []Offer {
	out, _ := s.Offers(context.Background(), KindTrain, from, to, date)
	return out
}

// Buses generates bus offers between two cities.
func (s *Synthesizer) Buses(from, to city.City, date time.Time) []Offer {
	out, _ := s.Offers(context.Background(), KindBus, from, to, date)
	return out
}

func (s *Synthesizer) generate(kind Kind, p profile, from, to string, date time.Time) []Offer {
	r := s.rng
	n := p.minCount + r.IntN(p.maxCount-p.minCount+1)
	out := make([]Offer, 0, n)

	for i := range n {
		dep := (p.firstHour+r.IntN(p.lastHour-p.firstHour))*60 + r.IntN(60)
		dur := (p.minHours+r.IntN(p.maxHours-p.minHours+1))*60 + r.IntN(60)
		company := p.roster[r.IntN(len(p.roster))]
		stops := p.stops(r)
		price := quote(r, p.base(float64(dur)/60, stops), from, to)

		o := Offer{
			ID:            fmt.Sprintf("%s-%d", p.prefix, 1000+i),
			Kind:          kind,
			DepartureCity: from,
			ArrivalCity:   to,
			Date:          date.Format(dateLayout),
			DepartureTime: clockTime(dep),
			ArrivalTime:   arrivalTime(dep, dur),
			Duration:      formatDuration(dur),
			Stops:         stops,
		}

		switch kind {
		case KindFlight:
			o.Flight = &FlightDetails{
				Airline:      company,
				FlightNumber: fmt.Sprintf("%s%d", codeOf(company), 1000+r.IntN(9000)),
			}
		case KindTrain:
			class := trainClasses[r.IntN(len(trainClasses))]
			price = max(int(math.Round(float64(price)*class.Multiplier())), 1)
			o.Train = &TrainDetails{
				Company: company,
				Number:  fmt.Sprintf("%s%d", codeOf(company), 100+r.IntN(900)),
				Class:   class,
			}
		case KindBus:
			o.Bus = &BusDetails{
				Company:   company,
				Amenities: pick(r, busAmenities, 2+r.IntN(4)),
			}
		}
		o.Price = price
		out = append(out, o)
	}

	slices.SortStableFunc(out, func(a, b Offer) int { return cmp.Compare(a.Price, b.Price) })
	return out
}

// Accommodations generates lodging offers for a stay, sorted by nightly price.
func (s *Synthesizer) Accommodations(ctx context.Context, destination city.City, checkIn, checkOut time.Time) ([]Accommodation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rng
	nights := nightsBetween(checkIn, checkOut)
	n := 10 + r.IntN(6)
	out := make([]Accommodation, 0, n)

	for i := range n {
		typ := lodgingTypes[r.IntN(len(lodgingTypes))]
		l := lodgings[typ]

		var name string
		if typ == LodgingHotel {
			name = hotelPrefixes[r.IntN(len(hotelPrefixes))] + " " + hotelSuffixes[r.IntN(len(hotelSuffixes))]
		} else {
			name = l.names[r.IntN(len(l.names))]
		}

		amenities := pick(r, l.amenities, l.minAmenities+r.IntN(l.maxAmenities-l.minAmenities+1))
		rating := math.Round((3+r.Float64()*2)*10) / 10
		perNight := quote(r, l.basePrice, destination.Name, "")

		out = append(out, Accommodation{
			ID:            fmt.Sprintf("ACC-%d", 1000+i),
			Name:          name,
			City:          destination.Name,
			Type:          typ,
			PricePerNight: perNight,
			Rating:        rating,
			Amenities:     amenities,
			ImageURL:      "https://placehold.co/600x400?text=" + url.QueryEscape(name),
			Address:       fmt.Sprintf("%d %s Street, %s", 1+r.IntN(200), destination.Name, destination.Country),
			CheckIn:       checkIn.Format(dateLayout),
			CheckOut:      checkOut.Format(dateLayout),
			Nights:        nights,
			TotalPrice:    perNight * nights,
		})
	}

	slices.SortStableFunc(out, func(a, b Accommodation) int { return cmp.Compare(a.PricePerNight, b.PricePerNight) })
	metrics.ObserveOffers("accommodation", len(out))
	return out, nil
}

// nightsBetween counts calendar nights between two dates, never fewer than one.
func nightsBetween(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return max(int(out.Sub(in).Hours()/24), 1)
}

// codeOf returns the two-letter carrier code for a company name.
func codeOf(company string) string {
	code := strings.ToUpper(strings.ReplaceAll(company, " ", ""))
	if len(code) > 2 {
		code = code[:2]
	}
	return code
}

// pick returns n distinct elements of pool in random order.
func pick(r *rand.Rand, pool []string, n int) []string {
	n = min(n, len(pool))
	out := make([]string, 0, n)
	for _, idx := range r.Perm(len(pool))[:n] {
		out = append(out, pool[idx])
	}
	return out
}
