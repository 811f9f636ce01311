package surface

import (
	"fmt"
	"math"

	"github.com/chazu/rpcgeom/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Placement locates a surface. Rotation is global to local: its rows are
// the local axes expressed in global coordinates.
type Placement struct {
	Position v3.Vec
	Rotation geom.Rotation
}

// ToLocal maps a global point into the surface frame.
func (p Placement) ToLocal(global v3.Vec) v3.Vec {
	return p.Rotation.Apply(global.Sub(p.Position))
}

// ToGlobal maps a local point into the global frame.
func (p Placement) ToGlobal(local v3.Vec) v3.Vec {
	return p.Rotation.Transpose().Apply(local).Add(p.Position)
}

// BoundPlane is a placed plane with finite bounds. It is immutable once
// built.
type BoundPlane struct {
	placement Placement
	bounds    Bounds
}

// NewBoundPlane returns a plane at placement with the given bounds.
func NewBoundPlane(placement Placement, bounds Bounds) *BoundPlane {
	return &BoundPlane{placement: placement, bounds: bounds}
}

func (b *BoundPlane) Placement() Placement    { return b.placement }
func (b *BoundPlane) Position() v3.Vec        { return b.placement.Position }
func (b *BoundPlane) Rotation() geom.Rotation { return b.placement.Rotation }
func (b *BoundPlane) Bounds() Bounds          { return b.bounds }

// Contains reports whether a global point lies within the plane's bounds
// and half thickness.
func (b *BoundPlane) Contains(global v3.Vec) bool {
	l := b.placement.ToLocal(global)
	if math.Abs(l.Z) > b.bounds.Thickness()/2 {
		return false
	}
	return b.bounds.Inside(v2.Vec{X: l.X, Y: l.Y})
}

func (b *BoundPlane) String() string {
	pos := b.placement.Position
	return fmt.Sprintf("%v at (%g, %g, %g) %v", b.bounds, pos.X, pos.Y, pos.Z, b.placement.Rotation)
}
