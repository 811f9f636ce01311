// Package rpc holds the reconstruction-side model of the resistive plate
// chambers: rolls with their identifiers, surfaces and specs, collected in a
// Geometry.
package rpc

import (
	"fmt"

	"github.com/chazu/rpcgeom/pkg/surface"
)

// DetID is a packed 32-bit roll identifier.
type DetID uint32

func (id DetID) String() string {
	return fmt.Sprintf("RPC(0x%08x)", uint32(id))
}

// RollSpecs is the shape family, name and reconstruction parameters of a
// roll. Params is [width, length, strips] for barrel rolls and
// [bottom, top, apothem, strips] for endcap rolls.
type RollSpecs struct {
	Class  surface.ShapeClass
	Name   string
	Params []float64
}

// NewRollSpecs appends the strip count to the derived dimensions.
func NewRollSpecs(class surface.ShapeClass, name string, derived []float64, strips int) RollSpecs {
	params := make([]float64, 0, len(derived)+1)
	params = append(params, derived...)
	params = append(params, float64(strips))
	return RollSpecs{Class: class, Name: name, Params: params}
}

// Strips returns the strip count, stored as the last parameter.
func (s RollSpecs) Strips() int {
	if len(s.Params) == 0 {
		return 0
	}
	return int(s.Params[len(s.Params)-1])
}

// Roll is one sensitive RPC roll. It is immutable once built.
type Roll struct {
	id      DetID
	surface *surface.BoundPlane
	specs   RollSpecs
}

// NewRoll returns a roll. The specs parameters are copied.
func NewRoll(id DetID, plane *surface.BoundPlane, specs RollSpecs) *Roll {
	specs.Params = append([]float64(nil), specs.Params...)
	return &Roll{id: id, surface: plane, specs: specs}
}

func (r *Roll) ID() DetID                    { return r.id }
func (r *Roll) Surface() *surface.BoundPlane { return r.surface }
func (r *Roll) Strips() int                  { return r.specs.Strips() }

// Specs returns a copy of the roll specs.
func (r *Roll) Specs() RollSpecs {
	s := r.specs
	s.Params = append([]float64(nil), s.Params...)
	return s
}

func (r *Roll) String() string {
	return fmt.Sprintf("%v %s %s %v", r.id, r.specs.Class, r.specs.Name, r.specs.Params)
}
