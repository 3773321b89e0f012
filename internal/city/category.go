package city

// CostCategory names one of the four monthly cost categories.
type CostCategory string

const (
	CostHousing        CostCategory = "housing"
	CostFood           CostCategory = "food"
	CostTransportation CostCategory = "transportation"
	CostEntertainment  CostCategory = "entertainment"
)

// CostCategories lists every category in display order.
var CostCategories = []CostCategory{CostHousing, CostFood, CostTransportation, CostEntertainment}

// Amount returns the city's monthly cost for cat. Unknown categories report 0.
func (m CostMetrics) Amount(cat CostCategory) float64 {
	switch cat {
	case CostHousing:
		return m.Housing
	case CostFood:
		return m.Food
	case CostTransportation:
		return m.Transportation
	case CostEntertainment:
		return m.Entertainment
	}
	return 0
}

// Bound returns the max bound configured for cat. The second result is false
// for an unknown category, which callers must treat as a rejection.
func (f CostFilter) Bound(cat CostCategory) (Number, bool) {
	switch cat {
	case CostHousing:
		return f.MaxHousing, true
	case CostFood:
		return f.MaxFood, true
	case CostTransportation:
		return f.MaxTransportation, true
	case CostEntertainment:
		return f.MaxEntertainment, true
	}
	return Number{}, false
}

// WithBound returns a copy of f with the bound for cat replaced.
func (f CostFilter) WithBound(cat CostCategory, n Number) CostFilter {
	switch cat {
	case CostHousing:
		f.MaxHousing = n
	case CostFood:
		f.MaxFood = n
	case CostTransportation:
		f.MaxTransportation = n
	case CostEntertainment:
		f.MaxEntertainment = n
	}
	return f
}
