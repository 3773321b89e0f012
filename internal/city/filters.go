package city

import "slices"

// Range is an inclusive [Min, Max] bound.
type Range struct {
	Min Number `json:"min"`
	Max Number `json:"max"`
}

// CostFilter bounds the monthly cost categories and their live total.
type CostFilter struct {
	MaxTotal          Number `json:"maxTotal"`
	MaxHousing        Number `json:"maxHousing"`
	MaxFood           Number `json:"maxFood"`
	MaxTransportation Number `json:"maxTransportation"`
	MaxEntertainment  Number `json:"maxEntertainment"`
}

// QualityOfLifeFilter bounds the quality indices.
type QualityOfLifeFilter struct {
	MinHealthcare Number `json:"minHealthcare"`
	MinSafety     Number `json:"minSafety"`
	MaxPollution  Number `json:"maxPollution"`
}

// ClimateFilter bounds temperature and rainfall and selects weather types and seasons.
type ClimateFilter struct {
	Temperature      Range    `json:"temperature"`
	MaxPrecipitation Number   `json:"maxPrecipitation"`
	SelectedWeather  []string `json:"selectedWeather"`
	SelectedSeasons  []string `json:"selectedSeasons"`
}

// InfrastructureFilter bounds connectivity and workspace availability.
type InfrastructureFilter struct {
	MinWifiSpeed       Number `json:"minWifiSpeed"`
	MinCoworkingSpaces Number `json:"minCoworkingSpaces"`
}

// DigitalNomadFilter bounds community size and selects visa types.
type DigitalNomadFilter struct {
	MinCommunitySize  Number   `json:"minCommunitySize"`
	MinMonthlyMeetups Number   `json:"minMonthlyMeetups"`
	SelectedVisas     []string `json:"selectedVisas"`
}

// InternetFilter selects internet speed tiers.
type InternetFilter struct {
	SelectedSpeeds []string `json:"selectedSpeeds"`
}

// FilterConfiguration is the full set of user-chosen constraints.
type FilterConfiguration struct {
	Cost           CostFilter           `json:"cost"`
	QualityOfLife  QualityOfLifeFilter  `json:"qualityOfLife"`
	Climate        ClimateFilter        `json:"climate"`
	Infrastructure InfrastructureFilter `json:"infrastructure"`
	DigitalNomad   DigitalNomadFilter   `json:"digitalNomad"`
	Internet       InternetFilter       `json:"internet"`
}

// FilterPatch replaces whole groups of a FilterConfiguration. Nil groups are
// left untouched.
type FilterPatch struct {
	Cost           *CostFilter           `json:"cost,omitempty"`
	QualityOfLife  *QualityOfLifeFilter  `json:"qualityOfLife,omitempty"`
	Climate        *ClimateFilter        `json:"climate,omitempty"`
	Infrastructure *InfrastructureFilter `json:"infrastructure,omitempty"`
	DigitalNomad   *DigitalNomadFilter   `json:"digitalNomad,omitempty"`
	Internet       *InternetFilter       `json:"internet,omitempty"`
}

// DefaultFilters returns the baseline configuration.
func DefaultFilters() FilterConfiguration {
	return FilterConfiguration{
		Cost: CostFilter{
			MaxTotal:          Num(2000),
			MaxHousing:        Num(1000),
			MaxFood:           Num(500),
			MaxTransportation: Num(200),
			MaxEntertainment:  Num(300),
		},
		QualityOfLife: QualityOfLifeFilter{
			MinHealthcare: Num(0),
			MinSafety:     Num(0),
			MaxPollution:  Num(100),
		},
		Climate: ClimateFilter{
			Temperature:      Range{Min: Num(15), Max: Num(35)},
			MaxPrecipitation: Num(2000),
			SelectedWeather:  []string{},
			SelectedSeasons:  []string{},
		},
		Infrastructure: InfrastructureFilter{
			MinWifiSpeed:       Num(0),
			MinCoworkingSpaces: Num(0),
		},
		DigitalNomad: DigitalNomadFilter{
			MinCommunitySize:  Num(0),
			MinMonthlyMeetups: Num(0),
			SelectedVisas:     []string{},
		},
		Internet: InternetFilter{
			SelectedSpeeds: []string{},
		},
	}
}

// Merge applies p to f one level deep: every group present in p replaces the
// matching group of f. Bounds left unset inside a replaced group fall back to
// the baseline, never to the previous value.
func (f FilterConfiguration) Merge(p FilterPatch) FilterConfiguration {
	out := f.Clone()
	if p.Cost != nil {
		out.Cost = *p.Cost
	}
	if p.QualityOfLife != nil {
		out.QualityOfLife = *p.QualityOfLife
	}
	if p.Climate != nil {
		out.Climate = *p.Climate
		out.Climate.SelectedWeather = slices.Clone(p.Climate.SelectedWeather)
		out.Climate.SelectedSeasons = slices.Clone(p.Climate.SelectedSeasons)
	}
	if p.Infrastructure != nil {
		out.Infrastructure = *p.Infrastructure
	}
	if p.DigitalNomad != nil {
		out.DigitalNomad = *p.DigitalNomad
		out.DigitalNomad.SelectedVisas = slices.Clone(p.DigitalNomad.SelectedVisas)
	}
	if p.Internet != nil {
		out.Internet.SelectedSpeeds = slices.Clone(p.Internet.SelectedSpeeds)
	}
	return out.Normalize()
}

// Normalize fills unset bounds from the baseline and replaces nil selections
// with empty ones, so a configuration always has every group populated.
func (f FilterConfiguration) Normalize() FilterConfiguration {
	d := DefaultFilters()
	fill := func(n *Number, def Number) {
		if n.IsZero() {
			*n = def
		}
	}
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}

	fill(&f.Cost.MaxTotal, d.Cost.MaxTotal)
	fill(&f.Cost.MaxHousing, d.Cost.MaxHousing)
	fill(&f.Cost.MaxFood, d.Cost.MaxFood)
	fill(&f.Cost.MaxTransportation, d.Cost.MaxTransportation)
	fill(&f.Cost.MaxEntertainment, d.Cost.MaxEntertainment)

	fill(&f.QualityOfLife.MinHealthcare, d.QualityOfLife.MinHealthcare)
	fill(&f.QualityOfLife.MinSafety, d.QualityOfLife.MinSafety)
	fill(&f.QualityOfLife.MaxPollution, d.QualityOfLife.MaxPollution)

	fill(&f.Climate.Temperature.Min, d.Climate.Temperature.Min)
	fill(&f.Climate.Temperature.Max, d.Climate.Temperature.Max)
	fill(&f.Climate.MaxPrecipitation, d.Climate.MaxPrecipitation)
	f.Climate.SelectedWeather = nonNil(f.Climate.SelectedWeather)
	f.Climate.SelectedSeasons = nonNil(f.Climate.SelectedSeasons)

	fill(&f.Infrastructure.MinWifiSpeed, d.Infrastructure.MinWifiSpeed)
	fill(&f.Infrastructure.MinCoworkingSpaces, d.Infrastructure.MinCoworkingSpaces)

	fill(&f.DigitalNomad.MinCommunitySize, d.DigitalNomad.MinCommunitySize)
	fill(&f.DigitalNomad.MinMonthlyMeetups, d.DigitalNomad.MinMonthlyMeetups)
	f.DigitalNomad.SelectedVisas = nonNil(f.DigitalNomad.SelectedVisas)

	f.Internet.SelectedSpeeds = nonNil(f.Internet.SelectedSpeeds)
	return f
}

// Clone returns a deep copy of f.
func (f FilterConfiguration) Clone() FilterConfiguration {
	f.Climate.SelectedWeather = slices.Clone(f.Climate.SelectedWeather)
	f.Climate.SelectedSeasons = slices.Clone(f.Climate.SelectedSeasons)
	f.DigitalNomad.SelectedVisas = slices.Clone(f.DigitalNomad.SelectedVisas)
	f.Internet.SelectedSpeeds = slices.Clone(f.Internet.SelectedSpeeds)
	return f
}

// RemoteQuery carries the constraints a remote catalog honours server-side.
// Empty fields are omitted from the request.
type RemoteQuery struct {
	MinTemp  string
	MaxTemp  string
	MaxCost  string
	VisaType string
}

// QueryFor builds the server-side subset of f. Only the first selected visa
// type is forwarded.
func QueryFor(f FilterConfiguration) RemoteQuery {
	q := RemoteQuery{
		MinTemp: f.Climate.Temperature.Min.String(),
		MaxTemp: f.Climate.Temperature.Max.String(),
		MaxCost: f.Cost.MaxTotal.String(),
	}
	if len(f.DigitalNomad.SelectedVisas) > 0 {
		q.VisaType = f.DigitalNomad.SelectedVisas[0]
	}
	return q
}
