package offer

import (
	"context"
	"time"

	"github.com/neexbeast/nomad-planner/internal/city"
)

// Kind identifies a transportation mode.
type Kind string

const (
	KindFlight Kind = "flight"
	KindTrain  Kind = "train"
	KindBus    Kind = "bus"
)

// Kinds lists every transportation kind.
var Kinds = []Kind{KindFlight, KindTrain, KindBus}

// ParseKind resolves a kind name, accepting plural forms.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "flight", "flights":
		return KindFlight, true
	case "train", "trains":
		return KindTrain, true
	case "bus", "buses":
		return KindBus, true
	}
	return "", false
}

// TrainClass is a seating class with its own price multiplier.
type TrainClass string

const (
	ClassEconomy  TrainClass = "economy"
	ClassBusiness TrainClass = "business"
	ClassFirst    TrainClass = "first"
)

// Multiplier returns the price factor for the class.
func (c TrainClass) Multiplier() float64 {
	switch c {
	case ClassBusiness:
		return 1.5
	case ClassFirst:
		return 2.0
	}
	return 1.0
}

// FlightDetails is set on flight offers.
type FlightDetails struct {
	Airline      string `json:"airline"`
	FlightNumber string `json:"flight_number"`
}

// TrainDetails is set on train offers.
type TrainDetails struct {
	Company string     `json:"train_company"`
	Number  string     `json:"train_number"`
	Class   TrainClass `json:"class"`
}

// BusDetails is set on bus offers.
type BusDetails struct {
	Company   string   `json:"bus_company"`
	Amenities []string `json:"amenities"`
}

// Offer is one synthetic transportation option. Exactly one of Flight, Train
// or Bus is set, matching Kind.
type Offer struct {
	ID            string `json:"id"`
	Kind          Kind   `json:"kind"`
	DepartureCity string `json:"departure_city"`
	ArrivalCity   string `json:"arrival_city"`
	Date          string `json:"date"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	Duration      string `json:"duration"`
	Price         int    `json:"price"`
	Stops         int    `json:"stops"`

	Flight *FlightDetails `json:"flight,omitempty"`
	Train  *TrainDetails  `json:"train,omitempty"`
	Bus    *BusDetails    `json:"bus,omitempty"`
}

// Provider returns the company or airline operating the offer.
func (o Offer) Provider() string {
	switch {
	case o.Flight != nil:
		return o.Flight.Airline
	case o.Train != nil:
		return o.Train.Company
	case o.Bus != nil:
		return o.Bus.Company
	}
	return ""
}

// LodgingType is an accommodation category.
type LodgingType string

const (
	LodgingHotel     LodgingType = "hotel"
	LodgingHostel    LodgingType = "hostel"
	LodgingApartment LodgingType = "apartment"
)

// Accommodation is one synthetic lodging option for a stay.
type Accommodation struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	City          string      `json:"city"`
	Type          LodgingType `json:"type"`
	PricePerNight int         `json:"price_per_night"`
	Rating        float64     `json:"rating"`
	Amenities     []string    `json:"amenities"`
	ImageURL      string      `json:"image_url"`
	Address       string      `json:"address"`
	CheckIn       string      `json:"check_in"`
	CheckOut      string      `json:"check_out"`
	Nights        int         `json:"nights"`
	TotalPrice    int         `json:"total_price"`
}

// Provider is a source of travel offers. The Synthesizer is the only
// implementation today; a live inventory backend can replace it.
type Provider interface {
	Offers(ctx context.Context, kind Kind, from, to city.City, date time.Time) ([]Offer, error)
	Accommodations(ctx context.Context, destination city.City, checkIn, checkOut time.Time) ([]Accommodation, error)
}
