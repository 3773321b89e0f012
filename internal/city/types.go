package city

import (
	"errors"
	"fmt"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ClimateMetrics holds climate data for a city.
type ClimateMetrics struct {
	AverageTemperature float64  `json:"averageTemperature"`
	Precipitation      float64  `json:"precipitation"`
	Seasons            []string `json:"seasons"`
}

// CostMetrics holds monthly living costs. CostOfLivingIndex is reported by the
// source and is not derived from the four categories.
type CostMetrics struct {
	Housing           float64 `json:"housing"`
	Food              float64 `json:"food"`
	Transportation    float64 `json:"transportation"`
	Entertainment     float64 `json:"entertainment"`
	CostOfLivingIndex float64 `json:"costOfLivingIndex"`
}

// InfrastructureMetrics holds connectivity and workspace data.
type InfrastructureMetrics struct {
	AverageWifiSpeed float64 `json:"averageWifiSpeed"`
	CoworkingSpaces  int     `json:"coworkingSpaces"`
}

// QualityOfLifeMetrics holds 0-100 style indices. Values are not clamped.
type QualityOfLifeMetrics struct {
	HealthcareIndex float64 `json:"healthcareIndex"`
	SafetyIndex     float64 `json:"safetyIndex"`
	PollutionIndex  float64 `json:"pollutionIndex"`
}

// DigitalNomadMetrics holds community data.
type DigitalNomadMetrics struct {
	CommunitySize    int    `json:"communitySize"`
	MonthlyMeetups   int    `json:"monthlyMeetups"`
	VisaRequirements string `json:"visaRequirements"`
}

// Metrics bundles the five metric groups of a city.
type Metrics struct {
	Climate        ClimateMetrics        `json:"climate"`
	Cost           CostMetrics           `json:"cost"`
	Infrastructure InfrastructureMetrics `json:"infrastructure"`
	QualityOfLife  QualityOfLifeMetrics  `json:"qualityOfLife"`
	DigitalNomad   DigitalNomadMetrics   `json:"digitalNomad"`
}

// City is a single catalog entry.
type City struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
	Metrics     Metrics     `json:"metrics"`
}

// TotalCost returns the sum of the four monthly cost categories.
func (m CostMetrics) TotalCost() float64 {
	return m.Housing + m.Food + m.Transportation + m.Entertainment
}

// Validate reports every structural problem with c.
func Validate(c City) error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if c.Coordinates.Lat < -90 || c.Coordinates.Lat > 90 {
		errs = append(errs, fmt.Errorf("lat %v out of range", c.Coordinates.Lat))
	}
	if c.Coordinates.Lng < -180 || c.Coordinates.Lng > 180 {
		errs = append(errs, fmt.Errorf("lng %v out of range", c.Coordinates.Lng))
	}

	m := c.Metrics
	if m.Climate.Precipitation < 0 {
		errs = append(errs, errors.New("precipitation must be non-negative"))
	}
	for _, s := range m.Climate.Seasons {
		if s == "" {
			errs = append(errs, errors.New("season labels must be non-empty"))
			break
		}
	}
	for _, cat := range CostCategories {
		if m.Cost.Amount(cat) < 0 {
			errs = append(errs, fmt.Errorf("%s cost must be non-negative", cat))
		}
	}
	if m.Infrastructure.AverageWifiSpeed < 0 || m.Infrastructure.CoworkingSpaces < 0 {
		errs = append(errs, errors.New("infrastructure metrics must be non-negative"))
	}
	if m.DigitalNomad.CommunitySize < 0 || m.DigitalNomad.MonthlyMeetups < 0 {
		errs = append(errs, errors.New("community metrics must be non-negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid city %q: %w", c.ID, errors.Join(errs...))
	}
	return nil
}
