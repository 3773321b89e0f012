package city

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a filter bound as it arrived from a configuration payload. It may
// have been sent as a JSON number or as a numeric string; it is converted to
// float64 only when a filter is evaluated.
type Number struct {
	raw string
}

// Num returns a Number holding v.
func Num(v float64) Number {
	return Number{raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// NumString returns a Number holding the unparsed value s, without
// surrounding whitespace.
func NumString(s string) Number {
	return Number{raw: strings.TrimSpace(s)}
}

// IsZero reports whether the Number was never set.
func (n Number) IsZero() bool {
	return n.raw == ""
}

// String returns the raw value.
func (n Number) String() string {
	return n.raw
}

// Float converts the Number. ok is false for empty, non-numeric or NaN input.
func (n Number) Float() (v float64, ok bool) {
	s := strings.TrimSpace(n.raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// MarshalJSON writes numeric values as JSON numbers and anything else as a
// string so the original payload survives a round trip.
func (n Number) MarshalJSON() ([]byte, error) {
	if _, ok := n.Float(); ok && json.Valid([]byte(n.raw)) {
		return []byte(n.raw), nil
	}
	return json.Marshal(n.raw)
}

// UnmarshalJSON accepts a number, a string or null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		n.raw = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding filter bound: %w", err)
		}
		n.raw = strings.TrimSpace(s)
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			// Booleans, objects and arrays are kept verbatim; Float rejects them.
			n.raw = string(data)
			return nil
		}
		n.raw = num.String()
		return nil
	}
}
