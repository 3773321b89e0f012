package city

import "slices"

var seed = []City{
	{
		ID:          "bangkok",
		Name:        "Bangkok",
		Country:     "Thailand",
		Coordinates: Coordinates{Lat: 13.7563, Lng: 100.5018},
		Metrics: Metrics{
			Climate:        ClimateMetrics{AverageTemperature: 28, Precipitation: 1648, Seasons: []string{"Hot", "Rainy", "Cool"}},
			Cost:           CostMetrics{Housing: 800, Food: 400, Transportation: 100, Entertainment: 300, CostOfLivingIndex: 60},
			Infrastructure: InfrastructureMetrics{AverageWifiSpeed: 55, CoworkingSpaces: 45},
			QualityOfLife:  QualityOfLifeMetrics{HealthcareIndex: 80, SafetyIndex: 65, PollutionIndex: 40},
			DigitalNomad:   DigitalNomadMetrics{CommunitySize: 5000, MonthlyMeetups: 25, VisaRequirements: "Visa on arrival"},
		},
	},
	{
		ID:          "chiang-mai",
		Name:        "Chiang Mai",
		Country:     "Thailand",
		Coordinates: Coordinates{Lat: 18.7883, Lng: 98.9853},
		Metrics: Metrics{
			Climate:        ClimateMetrics{AverageTemperature: 25, Precipitation: 1150, Seasons: []string{"Hot", "Rainy", "Cool"}},
			Cost:           CostMetrics{Housing: 500, Food: 300, Transportation: 80, Entertainment: 200, CostOfLivingIndex: 45},
			Infrastructure: InfrastructureMetrics{AverageWifiSpeed: 50, CoworkingSpaces: 35},
			QualityOfLife:  QualityOfLifeMetrics{HealthcareIndex: 75, SafetyIndex: 75, PollutionIndex: 35},
			DigitalNomad:   DigitalNomadMetrics{CommunitySize: 3500, MonthlyMeetups: 20, VisaRequirements: "Visa on arrival"},
		},
	},
	{
		ID:          "bali",
		Name:        "Bali",
		Country:     "Indonesia",
		Coordinates: Coordinates{Lat: -8.4095, Lng: 115.1889},
		Metrics: Metrics{
			Climate:        ClimateMetrics{AverageTemperature: 27, Precipitation: 1700, Seasons: []string{"Dry", "Wet"}},
			Cost:           CostMetrics{Housing: 600, Food: 350, Transportation: 90, Entertainment: 250, CostOfLivingIndex: 50},
			Infrastructure: InfrastructureMetrics{AverageWifiSpeed: 45, CoworkingSpaces: 40},
			QualityOfLife:  QualityOfLifeMetrics{HealthcareIndex: 70, SafetyIndex: 80, PollutionIndex: 30},
			DigitalNomad:   DigitalNomadMetrics{CommunitySize: 4000, MonthlyMeetups: 30, VisaRequirements: "Visa on arrival"},
		},
	},
	{
		ID:          "lisbon",
		Name:        "Lisbon",
		Country:     "Portugal",
		Coordinates: Coordinates{Lat: 38.7223, Lng: -9.1393},
		Metrics: Metrics{
			Climate:        ClimateMetrics{AverageTemperature: 17, Precipitation: 725, Seasons: []string{"Spring", "Summer", "Fall", "Winter"}},
			Cost:           CostMetrics{Housing: 1200, Food: 500, Transportation: 120, Entertainment: 400, CostOfLivingIndex: 70},
			Infrastructure: InfrastructureMetrics{AverageWifiSpeed: 75, CoworkingSpaces: 60},
			QualityOfLife:  QualityOfLifeMetrics{HealthcareIndex: 85, SafetyIndex: 85, PollutionIndex: 25},
			DigitalNomad:   DigitalNomadMetrics{CommunitySize: 6000, MonthlyMeetups: 35, VisaRequirements: "Digital nomad visa"},
		},
	},
	{
		ID:          "mexico-city",
		Name:        "Mexico City",
		Country:     "Mexico",
		Coordinates: Coordinates{Lat: 19.4326, Lng: -99.1332},
		Metrics: Metrics{
			Climate:        ClimateMetrics{AverageTemperature: 19, Precipitation: 850, Seasons: []string{"Dry", "Rainy"}},
			Cost:           CostMetrics{Housing: 900, Food: 400, Transportation: 100, Entertainment: 300, CostOfLivingIndex: 55},
			Infrastructure: InfrastructureMetrics{AverageWifiSpeed: 60, CoworkingSpaces: 50},
			QualityOfLife:  QualityOfLifeMetrics{HealthcareIndex: 75, SafetyIndex: 60, PollutionIndex: 45},
			DigitalNomad:   DigitalNomadMetrics{CommunitySize: 4500, MonthlyMeetups: 28, VisaRequirements: "Visa-free"},
		},
	},
}

// Seed returns a fresh copy of the built-in fallback catalog.
func Seed() []City {
	out := make([]City, len(seed))
	for i, c := range seed {
		c.Metrics.Climate.Seasons = slices.Clone(c.Metrics.Climate.Seasons)
		out[i] = c
	}
	return out
}

// Find returns the city with the given id.
func Find(cs []City, id string) (City, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return City{}, false
}
