package ddd

// ShapeKind is the shape tag declared by the description for a solid.
type ShapeKind int

const (
	ShapeUnknown ShapeKind = iota
	ShapeBox                // 3 parameters: half width, half length, half thickness
	ShapeTrap               // general trapezoid, 11 parameters in DDD order
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeTrap:
		return "trap"
	default:
		return "unknown"
	}
}

// Solid is the raw shape of a logical part: a declared tag and the raw
// parameter list in description length units.
type Solid struct {
	Name   string    `json:"name,omitempty"`
	Shape  ShapeKind `json:"shape"`
	Params []float64 `json:"params"`
}
