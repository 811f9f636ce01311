// Package units holds the length units used by detector descriptions.
// Raw description lengths are in millimetres; reconstruction geometry is
// expressed in centimetres.
package units

import "fmt"

// Length unit constants, expressed in raw description units (mm).
const (
	Millimeter = 1.0
	Centimeter = 10.0
	Meter      = 1000.0
)

// ByName maps unit names accepted in configuration to their size in mm.
var ByName = map[string]float64{
	"mm": Millimeter,
	"cm": Centimeter,
	"m":  Meter,
}

// Parse returns the size of the named unit in mm.
func Parse(name string) (float64, error) {
	u, ok := ByName[name]
	if !ok {
		return 0, fmt.Errorf("units: unknown length unit %q (expected mm, cm or m)", name)
	}
	return u, nil
}

// Convert expresses a raw length in the target unit. It is the only place a
// raw length is divided by a unit so that every field is converted once.
func Convert(raw, unit float64) float64 {
	return raw / unit
}
