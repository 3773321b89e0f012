package offer

import (
	"cmp"
	"math"
	"slices"
)

// SortKey selects the ordering applied by Sort and SortAccommodations.
type SortKey string

const (
	SortPrice    SortKey = "price"
	SortDuration SortKey = "duration"
	SortStops    SortKey = "stops"
	SortRating   SortKey = "rating"
)

// ParseOfferSortKey validates a key for transportation offers.
func ParseOfferSortKey(s string) (SortKey, bool) {
	switch k := SortKey(s); k {
	case SortPrice, SortDuration, SortStops:
		return k, true
	}
	return "", false
}

// ParseAccommodationSortKey validates a key for accommodations.
func ParseAccommodationSortKey(s string) (SortKey, bool) {
	switch k := SortKey(s); k {
	case SortPrice, SortRating:
		return k, true
	}
	return "", false
}

// Sort returns a stably sorted copy of offers. Price and stops sort
// ascending. Duration compares the hour component only, so "2h 50m" and
// "2h 05m" tie and keep their input order; unparseable durations sort last.
// Unsupported keys return an unsorted copy.
func Sort(offers []Offer, key SortKey) []Offer {
	out := slices.Clone(offers)

	var cmpFn func(a, b Offer) int
	switch key {
	case SortPrice:
		cmpFn = func(a, b Offer) int { return cmp.Compare(a.Price, b.Price) }
	case SortStops:
		cmpFn = func(a, b Offer) int { return cmp.Compare(a.Stops, b.Stops) }
	case SortDuration:
		// TODO: get product sign-off on breaking duration ties by minutes;
		// rank_test pins the hour-only comparison until then.
		cmpFn = func(a, b Offer) int { return cmp.Compare(hoursOrLast(a.Duration), hoursOrLast(b.Duration)) }
	default:
		return out
	}

	slices.SortStableFunc(out, cmpFn)
	return out
}

// SortAccommodations returns a stably sorted copy of list: price ascending
// or rating descending.
func SortAccommodations(list []Accommodation, key SortKey) []Accommodation {
	out := slices.Clone(list)

	switch key {
	case SortPrice:
		slices.SortStableFunc(out, func(a, b Accommodation) int { return cmp.Compare(a.PricePerNight, b.PricePerNight) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b Accommodation) int { return cmp.Compare(b.Rating, a.Rating) })
	}
	return out
}

func hoursOrLast(d string) int {
	h, ok := durationHours(d)
	if !ok {
		return math.MaxInt
	}
	return h
}
