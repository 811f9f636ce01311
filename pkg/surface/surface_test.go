package surface

import (
	"math"
	"testing"

	"github.com/chazu/rpcgeom/pkg/geom"
	"github.com/chazu/rpcgeom/pkg/units"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	boxParams  = []float64{200, 400, 10}
	trapParams = []float64{60, 0, 0, 0, 50, 0, 0, 0, 80}
)

func assertVec(t *testing.T, want, got v3.Vec, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, 1e-9, msgAndArgs...)
	assert.InDelta(t, want.Z, got.Z, 1e-9, msgAndArgs...)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		n    int
		want ShapeClass
	}{
		{0, Endcap},
		{2, Endcap},
		{3, Barrel},
		{4, Endcap},
		{9, Endcap},
		{11, Endcap},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(make([]float64, tt.n)), "%d params", tt.n)
	}
	assert.Equal(t, "barrel", Barrel.String())
	assert.Equal(t, "endcap", Endcap.String())
}

func TestBuildBarrel(t *testing.T) {
	res, err := Factory{}.Build(boxParams, v3.Vec{Z: 150}, geom.Identity())
	require.NoError(t, err)

	assert.Equal(t, Barrel, res.Class)
	assert.True(t, res.RightHanded)
	assert.Equal(t, []float64{20, 40}, res.Derived)

	b, ok := res.Plane.Bounds().(RectangularBounds)
	require.True(t, ok, "bounds are %T", res.Plane.Bounds())
	assert.Equal(t, RectangularBounds{HalfWidth: 20, HalfLength: 40, HalfThickness: 1}, b)
	assert.Equal(t, 2.0, b.Thickness())
	assertVec(t, v3.Vec{Z: 15}, res.Plane.Position())
	assert.Equal(t, geom.Identity(), res.Plane.Rotation())
}

func TestBuildEndcap(t *testing.T) {
	res, err := Factory{Unit: units.Centimeter}.Build(trapParams, v3.Vec{Z: -150}, geom.Identity())
	require.NoError(t, err)

	assert.Equal(t, Endcap, res.Class)
	assert.Equal(t, []float64{5, 8, 6}, res.Derived)

	b, ok := res.Plane.Bounds().(TrapezoidalBounds)
	require.True(t, ok, "bounds are %T", res.Plane.Bounds())
	assert.Equal(t, 5.0, b.HalfBottom)
	assert.Equal(t, 8.0, b.HalfTop)
	assert.Equal(t, 6.0, b.Apothem)
	assert.InDelta(t, 0.04, b.HalfThickness, 1e-12)
	assertVec(t, v3.Vec{Z: -15}, res.Plane.Position())
}

func TestBuildUnits(t *testing.T) {
	tran := v3.Vec{X: 1000, Y: -500, Z: 250}
	for _, u := range []float64{units.Millimeter, units.Centimeter, units.Meter} {
		res, err := Factory{Unit: u}.Build(boxParams, tran, geom.Identity())
		require.NoError(t, err)
		assertVec(t, v3.Vec{X: tran.X / u, Y: tran.Y / u, Z: tran.Z / u}, res.Plane.Position(), "unit %g", u)
		assert.InDelta(t, 200/u, res.Derived[0], 1e-12)
	}
}

func TestBuildShortTrapezoid(t *testing.T) {
	for _, n := range []int{0, 1, 4, 8} {
		_, err := Factory{}.Build(make([]float64, n), v3.Vec{}, geom.Identity())
		assert.ErrorIs(t, err, ErrShapeParameters, "%d params", n)
	}
}

func TestBuildRejectsNegativeUnit(t *testing.T) {
	_, err := Factory{Unit: -1}.Build(boxParams, v3.Vec{}, geom.Identity())
	assert.Error(t, err)
}

func TestEndcapAxisCorrection(t *testing.T) {
	tests := []struct {
		name        string
		z           float64
		wantY       v3.Vec
		rightHanded bool
		det         float64
	}{
		{"negative z keeps y", -150, v3.Vec{Z: 1}, false, -1},
		{"zero z keeps y", 0, v3.Vec{Z: 1}, false, -1},
		{"positive z reverses y", 150, v3.Vec{Z: -1}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Factory{}.Build(trapParams, v3.Vec{Z: tt.z}, geom.Identity())
			require.NoError(t, err)
			rot := res.Plane.Rotation()
			assertVec(t, v3.Vec{X: 1}, rot.X())
			assertVec(t, tt.wantY, rot.Y())
			assertVec(t, v3.Vec{Y: 1}, rot.Z())
			assert.Equal(t, tt.rightHanded, res.RightHanded)
			assert.InDelta(t, tt.det, rot.Det(), 1e-12)
		})
	}
}

func TestBarrelIgnoresAxisCorrection(t *testing.T) {
	rot := geom.RotationZ(math.Pi / 3)
	for _, z := range []float64{-150, 150} {
		res, err := Factory{}.Build(boxParams, v3.Vec{Z: z}, rot)
		require.NoError(t, err)
		assert.Equal(t, rot.Transpose(), res.Plane.Rotation())
		assert.True(t, res.RightHanded)
	}
}

func TestEndcapCorrectionRelabelsRotatedFrame(t *testing.T) {
	node := geom.RotationZ(math.Pi / 2)
	surf := node.Transpose()

	res, err := Factory{}.Build(trapParams, v3.Vec{Z: 10}, node)
	require.NoError(t, err)
	rot := res.Plane.Rotation()
	assertVec(t, surf.X(), rot.X())
	assertVec(t, surf.Z().MulScalar(-1), rot.Y())
	assertVec(t, surf.Y(), rot.Z())
	assert.True(t, rot.IsProper(geom.ProperTolerance))
}

func TestPlacementRoundTrip(t *testing.T) {
	p := Placement{
		Position: v3.Vec{X: 1, Y: 2, Z: 3},
		Rotation: geom.RotationZ(0.7).Mul(geom.RotationX(0.3)),
	}
	g := v3.Vec{X: -4, Y: 5, Z: 0.5}
	assertVec(t, g, p.ToGlobal(p.ToLocal(g)))
	assertVec(t, v3.Vec{}, p.ToLocal(p.Position))
}

func TestBoundsInside(t *testing.T) {
	rect := RectangularBounds{HalfWidth: 2, HalfLength: 4, HalfThickness: 1}
	assert.True(t, rect.Inside(v2.Vec{X: 2, Y: -4}))
	assert.False(t, rect.Inside(v2.Vec{X: 2.1, Y: 0}))
	assert.Equal(t, 4.0, rect.Width())
	assert.Equal(t, 8.0, rect.Length())

	trap := TrapezoidalBounds{HalfBottom: 5, HalfTop: 8, Apothem: 6}
	assert.True(t, trap.Inside(v2.Vec{X: 7.9, Y: 6}))
	assert.False(t, trap.Inside(v2.Vec{X: 7.9, Y: -6}))
	assert.True(t, trap.Inside(v2.Vec{X: 6.5, Y: 0}))
	assert.False(t, trap.Inside(v2.Vec{X: 0, Y: 6.1}))
	assert.Equal(t, 16.0, trap.Width())
	assert.Equal(t, 12.0, trap.Length())
}

func TestBoundPlaneContains(t *testing.T) {
	res, err := Factory{}.Build(boxParams, v3.Vec{Z: 150}, geom.Identity())
	require.NoError(t, err)
	plane := res.Plane
	assert.True(t, plane.Contains(v3.Vec{X: 19, Y: -39, Z: 15.5}))
	assert.False(t, plane.Contains(v3.Vec{X: 19, Y: -39, Z: 16.5}))
	assert.False(t, plane.Contains(v3.Vec{X: 21, Z: 15}))
}
