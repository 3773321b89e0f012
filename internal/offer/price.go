package offer

import (
	"math"
	"math/rand/v2"
	"strings"
)

// expensiveCities carry a 1.5x route modifier when either endpoint matches.
var expensiveCities = []string{"Tokyo", "New York", "London", "Singapore", "Paris"}

func isExpensive(name string) bool {
	name = strings.TrimSpace(name)
	for _, c := range expensiveCities {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

func routeModifier(from, to string) float64 {
	if isExpensive(from) || isExpensive(to) {
		return 1.5
	}
	return 1.0
}

// quote applies the route modifier and ±20% noise to base. The result is
// always at least 1.
func quote(rng *rand.Rand, base float64, from, to string) int {
	factor := 0.8 + rng.Float64()*0.4
	p := int(math.Round(base * routeModifier(from, to) * factor))
	return max(p, 1)
}
