package mesh

import (
	"fmt"
	"math"

	"github.com/chazu/rpcgeom/pkg/rpc"
	"github.com/chazu/rpcgeom/pkg/surface"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultCells is the marching cubes resolution along a roll's longest side.
const DefaultCells = 64

// minThicknessCells is the thinnest slab, in cells, that marching cubes
// reliably resolves. Thinner rolls are thickened to it.
const minThicknessCells = 2

// Tessellator renders roll surfaces.
type Tessellator struct {
	// Cells is the resolution along the longest side; zero means DefaultCells.
	Cells int
}

func (t Tessellator) cells() int {
	if t.Cells <= 0 {
		return DefaultCells
	}
	return t.Cells
}

// Tessellate produces one mesh per roll, in geometry order. It never
// mutates the geometry.
func (t Tessellator) Tessellate(g *rpc.Geometry) ([]*Mesh, error) {
	if g == nil {
		return nil, nil
	}
	var meshes []*Mesh
	for _, r := range g.Rolls() {
		m, err := t.Roll(r)
		if err != nil {
			return nil, fmt.Errorf("mesh: roll %v: %w", r.ID(), err)
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// Roll tessellates a single roll in global coordinates.
func (t Tessellator) Roll(r *rpc.Roll) (*Mesh, error) {
	plane := r.Surface()
	solid, err := t.solid(plane.Bounds())
	if err != nil {
		return nil, err
	}

	m := toMesh(solid, t.cells(), plane.Placement())
	m.RollName = r.Specs().Name
	m.ID = r.ID()
	return m, nil
}

// solid builds the local-frame slab for bounds: the plane spans local x and
// y, and the thickness runs along local z.
func (t Tessellator) solid(b surface.Bounds) (sdf.SDF3, error) {
	longest := math.Max(b.Width(), b.Length())
	if longest <= 0 {
		return nil, fmt.Errorf("degenerate bounds %v", b)
	}
	thick := math.Max(b.Thickness(), minThicknessCells*longest/float64(t.cells()))

	switch bb := b.(type) {
	case surface.RectangularBounds:
		return sdf.Box3D(v3.Vec{X: bb.Width(), Y: bb.Length(), Z: thick}, 0)
	case surface.TrapezoidalBounds:
		outline, err := sdf.Polygon2D([]v2.Vec{
			{X: -bb.HalfBottom, Y: -bb.Apothem},
			{X: bb.HalfBottom, Y: -bb.Apothem},
			{X: bb.HalfTop, Y: bb.Apothem},
			{X: -bb.HalfTop, Y: bb.Apothem},
		})
		if err != nil {
			return nil, err
		}
		return sdf.Extrude3D(outline, thick), nil
	}
	return nil, fmt.Errorf("unsupported bounds %T", b)
}

// toMesh converts a local solid to a triangle mesh using marching cubes and
// maps every vertex and normal through the placement.
func toMesh(s sdf.SDF3, cells int, p surface.Placement) *Mesh {
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	toGlobal := p.Rotation.Transpose()
	for i, tri := range triangles {
		n := toGlobal.Apply(tri.Normal())
		for j := 0; j < 3; j++ {
			v := p.ToGlobal(tri[j])
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
}
