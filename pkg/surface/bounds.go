// Package surface builds the bounded planes that describe RPC rolls: the
// bounds derived from solid parameters, the placement in the global frame,
// and the axis convention applied to endcap rolls.
package surface

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// ShapeClass is the roll family inferred from a solid's parameter count.
type ShapeClass int

const (
	Barrel ShapeClass = iota
	Endcap
)

func (c ShapeClass) String() string {
	switch c {
	case Barrel:
		return "barrel"
	case Endcap:
		return "endcap"
	}
	return fmt.Sprintf("ShapeClass(%d)", int(c))
}

// Classify infers the shape class. Exactly three parameters describe a
// barrel box; any other count is treated as an endcap trapezoid.
func Classify(params []float64) ShapeClass {
	if len(params) == 3 {
		return Barrel
	}
	return Endcap
}

// Bounds is the extent of a plane in its local frame. Width, Length and
// Thickness are full extents; the constructors take half extents.
type Bounds interface {
	Width() float64
	Length() float64
	Thickness() float64
	Inside(local v2.Vec) bool
}

// RectangularBounds is a rectangle of half width HalfWidth along local x
// and half length HalfLength along local y.
type RectangularBounds struct {
	HalfWidth     float64
	HalfLength    float64
	HalfThickness float64
}

func (b RectangularBounds) Width() float64     { return 2 * b.HalfWidth }
func (b RectangularBounds) Length() float64    { return 2 * b.HalfLength }
func (b RectangularBounds) Thickness() float64 { return 2 * b.HalfThickness }

func (b RectangularBounds) Inside(p v2.Vec) bool {
	return math.Abs(p.X) <= b.HalfWidth && math.Abs(p.Y) <= b.HalfLength
}

func (b RectangularBounds) String() string {
	return fmt.Sprintf("rect(%g, %g, %g)", b.HalfWidth, b.HalfLength, b.HalfThickness)
}

// TrapezoidalBounds is a trapezoid symmetric about local y, with half edge
// HalfBottom at y = -Apothem and HalfTop at y = +Apothem.
type TrapezoidalBounds struct {
	HalfBottom    float64
	HalfTop       float64
	Apothem       float64
	HalfThickness float64
}

func (b TrapezoidalBounds) Width() float64     { return 2 * math.Max(b.HalfBottom, b.HalfTop) }
func (b TrapezoidalBounds) Length() float64    { return 2 * b.Apothem }
func (b TrapezoidalBounds) Thickness() float64 { return 2 * b.HalfThickness }

func (b TrapezoidalBounds) Inside(p v2.Vec) bool {
	if math.Abs(p.Y) > b.Apothem {
		return false
	}
	half := b.HalfBottom
	if b.Apothem > 0 {
		half += (b.HalfTop - b.HalfBottom) * (p.Y + b.Apothem) / (2 * b.Apothem)
	}
	return math.Abs(p.X) <= half
}

func (b TrapezoidalBounds) String() string {
	return fmt.Sprintf("trap(%g, %g, %g, %g)", b.HalfBottom, b.HalfTop, b.Apothem, b.HalfThickness)
}
