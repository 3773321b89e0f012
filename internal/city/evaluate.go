package city

import "strings"

// Weather types selectable in the climate group.
const (
	WeatherHot      = "Hot"
	WeatherModerate = "Moderate"
	WeatherCool     = "Cool"
)

// Internet speed tiers selectable in the internet group.
const (
	SpeedFast   = "Fast (50+ Mbps)"
	SpeedMedium = "Medium (20-50 Mbps)"
	SpeedBasic  = "Basic (< 20 Mbps)"
)

// weatherMatchers maps each weather type to its temperature band (°C).
var weatherMatchers = map[string]func(temp float64) bool{
	WeatherHot:      func(t float64) bool { return t >= 25 },
	WeatherModerate: func(t float64) bool { return t >= 15 && t < 25 },
	WeatherCool:     func(t float64) bool { return t < 15 },
}

// speedMatchers maps each internet tier to its Mbps band.
var speedMatchers = map[string]func(mbps float64) bool{
	SpeedFast:   func(s float64) bool { return s >= 50 },
	SpeedMedium: func(s float64) bool { return s >= 20 && s < 50 },
	SpeedBasic:  func(s float64) bool { return s < 20 },
}

// Passes reports whether c satisfies every dimension of f. It never panics:
// a bound that cannot be read as a number rejects the city.
func Passes(c City, f FilterConfiguration) bool {
	m := c.Metrics
	return passesCost(m.Cost, f.Cost) &&
		passesQuality(m.QualityOfLife, f.QualityOfLife) &&
		passesClimate(m.Climate, f.Climate) &&
		passesInfrastructure(m.Infrastructure, f.Infrastructure) &&
		passesNomad(m.DigitalNomad, f.DigitalNomad) &&
		passesInternet(m.Infrastructure, f.Internet)
}

// Apply returns the cities in cs that pass f, in their original order.
func Apply(cs []City, f FilterConfiguration) []City {
	out := make([]City, 0, len(cs))
	for _, c := range cs {
		if Passes(c, f) {
			out = append(out, c)
		}
	}
	return out
}

func atMost(v float64, bound Number) bool {
	b, ok := bound.Float()
	return ok && v <= b
}

func atLeast(v float64, bound Number) bool {
	b, ok := bound.Float()
	return ok && v >= b
}

func passesCost(m CostMetrics, f CostFilter) bool {
	if !atMost(m.TotalCost(), f.MaxTotal) {
		return false
	}
	for _, cat := range CostCategories {
		bound, ok := f.Bound(cat)
		if !ok || !atMost(m.Amount(cat), bound) {
			return false
		}
	}
	return true
}

func passesQuality(m QualityOfLifeMetrics, f QualityOfLifeFilter) bool {
	return atLeast(m.HealthcareIndex, f.MinHealthcare) &&
		atLeast(m.SafetyIndex, f.MinSafety) &&
		atMost(m.PollutionIndex, f.MaxPollution)
}

func passesClimate(m ClimateMetrics, f ClimateFilter) bool {
	// An inverted range fails both checks for every value.
	if !atLeast(m.AverageTemperature, f.Temperature.Min) || !atMost(m.AverageTemperature, f.Temperature.Max) {
		return false
	}
	if !atMost(m.Precipitation, f.MaxPrecipitation) {
		return false
	}
	if len(f.SelectedWeather) > 0 && !anyTag(f.SelectedWeather, weatherMatchers, m.AverageTemperature) {
		return false
	}
	if len(f.SelectedSeasons) > 0 && !sharesLabel(m.Seasons, f.SelectedSeasons) {
		return false
	}
	return true
}

func passesInfrastructure(m InfrastructureMetrics, f InfrastructureFilter) bool {
	return atLeast(m.AverageWifiSpeed, f.MinWifiSpeed) &&
		atLeast(float64(m.CoworkingSpaces), f.MinCoworkingSpaces)
}

func passesNomad(m DigitalNomadMetrics, f DigitalNomadFilter) bool {
	if !atLeast(float64(m.CommunitySize), f.MinCommunitySize) ||
		!atLeast(float64(m.MonthlyMeetups), f.MinMonthlyMeetups) {
		return false
	}
	if len(f.SelectedVisas) > 0 && !sharesLabel([]string{m.VisaRequirements}, f.SelectedVisas) {
		return false
	}
	return true
}

func passesInternet(m InfrastructureMetrics, f InternetFilter) bool {
	if len(f.SelectedSpeeds) == 0 {
		return true
	}
	return anyTag(f.SelectedSpeeds, speedMatchers, m.AverageWifiSpeed)
}

// anyTag reports whether any selected tag's matcher accepts v. Tags compare
// like sharesLabel does, ignoring case and surrounding space. Unknown tags
// match nothing.
func anyTag(selected []string, matchers map[string]func(float64) bool, v float64) bool {
	for _, tag := range selected {
		for label, match := range matchers {
			if sameLabel(label, tag) && match(v) {
				return true
			}
		}
	}
	return false
}

func sameLabel(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func sharesLabel(have, selected []string) bool {
	for _, s := range selected {
		for _, h := range have {
			if sameLabel(h, s) {
				return true
			}
		}
	}
	return false
}
