package surface

import (
	"errors"
	"fmt"

	"github.com/chazu/rpcgeom/pkg/geom"
	"github.com/chazu/rpcgeom/pkg/units"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// EndcapThickness is the half thickness given to every endcap roll, in raw
// description units. Trapezoid solids do not carry a usable thickness.
const EndcapThickness = 0.4

// Indices of the trapezoid parameters used for endcap bounds.
const (
	trapApothem    = 0
	trapHalfBottom = 4
	trapHalfTop    = 8
	trapMinParams  = 9
)

// ErrShapeParameters is returned when an endcap solid has too few
// parameters to derive its bounds.
var ErrShapeParameters = errors.New("too few solid parameters")

// Result is the outcome of building one roll surface.
type Result struct {
	Class ShapeClass
	Plane *BoundPlane

	// Derived holds the roll dimensions in output units: [width, length]
	// for barrel rolls, [bottom, top, apothem] for endcap rolls.
	Derived []float64

	// RightHanded is false when the endcap axis correction produced a
	// left-handed frame. Barrel rolls are always true.
	RightHanded bool
}

// Factory builds roll surfaces. Unit is the number of raw description units
// per output unit; zero means units.Centimeter.
type Factory struct {
	Unit float64
}

func (f Factory) unit() float64 {
	if f.Unit == 0 {
		return units.Centimeter
	}
	return f.Unit
}

// Build derives the bounds and placement of a roll from its raw solid
// parameters and its global translation and local-to-global rotation.
func (f Factory) Build(params []float64, tran v3.Vec, rot geom.Rotation) (Result, error) {
	u := f.unit()
	if u < 0 {
		return Result{}, fmt.Errorf("surface: unit must be positive, got %g", u)
	}

	placement := Placement{
		Position: v3.Vec{X: units.Convert(tran.X, u), Y: units.Convert(tran.Y, u), Z: units.Convert(tran.Z, u)},
		Rotation: rot.Transpose(),
	}

	class := Classify(params)
	if class == Barrel {
		w, l, t := units.Convert(params[0], u), units.Convert(params[1], u), units.Convert(params[2], u)
		return Result{
			Class:       Barrel,
			Plane:       NewBoundPlane(placement, RectangularBounds{HalfWidth: w, HalfLength: l, HalfThickness: t}),
			Derived:     []float64{w, l},
			RightHanded: true,
		}, nil
	}

	if len(params) < trapMinParams {
		return Result{}, fmt.Errorf("surface: endcap solid has %d parameters, need %d: %w",
			len(params), trapMinParams, ErrShapeParameters)
	}
	bottom := units.Convert(params[trapHalfBottom], u)
	top := units.Convert(params[trapHalfTop], u)
	apothem := units.Convert(params[trapApothem], u)

	corrected, rightHanded := CorrectEndcapAxes(placement.Rotation, tran.Z)
	placement.Rotation = corrected

	return Result{
		Class: Endcap,
		Plane: NewBoundPlane(placement, TrapezoidalBounds{
			HalfBottom:    bottom,
			HalfTop:       top,
			Apothem:       apothem,
			HalfThickness: units.Convert(EndcapThickness, u),
		}),
		Derived:     []float64{bottom, top, apothem},
		RightHanded: rightHanded,
	}, nil
}

// CorrectEndcapAxes re-labels the axes of an endcap surface rotation: the
// new x is the old x, the new y is the old z, and the new z is the old y.
// The new y is reversed for rolls at positive global z. The second result
// reports whether the new frame is right-handed, which only holds in the
// reversed case; the correction is returned either way.
func CorrectEndcapAxes(rot geom.Rotation, globalZ float64) (geom.Rotation, bool) {
	newX := v3.Vec{X: 1}
	newY := v3.Vec{Z: 1}
	newZ := v3.Vec{Y: 1}
	if globalZ > 0 {
		newY = newY.MulScalar(-1)
	}
	return rot.RotateAxes(newX, newY, newZ)
}
