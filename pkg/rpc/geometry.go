package rpc

import "github.com/chazu/rpcgeom/pkg/surface"

// Geometry is the collection of rolls produced by one build. It is
// append-only and not safe for concurrent mutation. Identifier uniqueness
// is the caller's responsibility; Add does not check it.
type Geometry struct {
	rolls []*Roll
	byID  map[DetID]*Roll
}

// New returns an empty Geometry.
func New() *Geometry {
	return &Geometry{byID: make(map[DetID]*Roll)}
}

// Add appends r. When an identifier repeats, lookups keep the first roll.
func (g *Geometry) Add(r *Roll) {
	g.rolls = append(g.rolls, r)
	if _, ok := g.byID[r.id]; !ok {
		g.byID[r.id] = r
	}
}

// Len returns the number of rolls added.
func (g *Geometry) Len() int {
	return len(g.rolls)
}

// Rolls returns the rolls in insertion order.
func (g *Geometry) Rolls() []*Roll {
	out := make([]*Roll, len(g.rolls))
	copy(out, g.rolls)
	return out
}

// Roll looks a roll up by identifier.
func (g *Geometry) Roll(id DetID) (*Roll, bool) {
	r, ok := g.byID[id]
	return r, ok
}

// DetIDs returns the identifiers in insertion order.
func (g *Geometry) DetIDs() []DetID {
	out := make([]DetID, len(g.rolls))
	for i, r := range g.rolls {
		out[i] = r.id
	}
	return out
}

// Barrel returns the barrel rolls in insertion order.
func (g *Geometry) Barrel() []*Roll {
	return g.ofClass(surface.Barrel)
}

// Endcap returns the endcap rolls in insertion order.
func (g *Geometry) Endcap() []*Roll {
	return g.ofClass(surface.Endcap)
}

func (g *Geometry) ofClass(c surface.ShapeClass) []*Roll {
	var out []*Roll
	for _, r := range g.rolls {
		if r.specs.Class == c {
			out = append(out, r)
		}
	}
	return out
}
