package ddd

import (
	"fmt"
	"strconv"
)

// Value is one named specifics entry. A value may carry several strings or
// several doubles; most consumers only look at the first one.
type Value struct {
	Name    string    `json:"name"`
	Strings []string  `json:"strings,omitempty"`
	Doubles []float64 `json:"doubles,omitempty"`
}

// StringValue returns a string-valued entry.
func StringValue(name string, s ...string) Value {
	return Value{Name: name, Strings: s}
}

// DoubleValue returns a numeric entry. The string form of each double is
// kept alongside so string comparisons still work.
func DoubleValue(name string, d ...float64) Value {
	strs := make([]string, len(d))
	for i, f := range d {
		strs[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return Value{Name: name, Strings: strs, Doubles: d}
}

// IsNumeric reports whether the entry carries at least one double.
func (v Value) IsNumeric() bool {
	return len(v.Doubles) > 0
}

func (v Value) String() string {
	switch {
	case len(v.Strings) > 0:
		return fmt.Sprintf("%s=%v", v.Name, v.Strings)
	case len(v.Doubles) > 0:
		return fmt.Sprintf("%s=%v", v.Name, v.Doubles)
	default:
		return v.Name + "=<empty>"
	}
}

// Specifics is the ordered attribute table attached to a logical part.
type Specifics []Value

// Fetch returns the entry with the given name. When several entries share a
// name the last one wins, matching merged-specifics lookup.
func (s Specifics) Fetch(name string) (Value, bool) {
	var (
		found Value
		ok    bool
	)
	for _, v := range s {
		if v.Name == name {
			found, ok = v, true
		}
	}
	return found, ok
}

// Double returns the first double of the named entry.
func (s Specifics) Double(name string) (float64, bool) {
	v, ok := s.Fetch(name)
	if !ok || !v.IsNumeric() {
		return 0, false
	}
	return v.Doubles[0], true
}

// String returns the first string of the named entry.
func (s Specifics) String(name string) (string, bool) {
	v, ok := s.Fetch(name)
	if !ok || len(v.Strings) == 0 {
		return "", false
	}
	return v.Strings[0], true
}
