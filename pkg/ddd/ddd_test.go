package ddd

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/rpcgeom/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

var sensitive = StringValue("ReadOutName", "MuonRPCHits")

func rpcFilter() *SpecificsFilter {
	f := NewSpecificsFilter()
	f.SetCriteria(sensitive, Matches, And, true)
	return f
}

// buildStation creates root -> wheel -> two chambers, each holding two gas
// gap rolls. Only the rolls carry the read-out attribute.
func buildStation() *CompactView {
	cv := New("OCMS")
	cv.AddLogicalPart(&LogicalPart{Name: "Wheel"})
	cv.AddLogicalPart(&LogicalPart{Name: "Chamber"})
	cv.AddLogicalPart(&LogicalPart{
		Name:      "Roll",
		Solid:     Solid{Shape: ShapeBox, Params: []float64{200, 400, 10}},
		Specifics: Specifics{sensitive, DoubleValue("nStrips", 32)},
	})
	cv.AddPosPart(PosPart{Parent: "OCMS", Child: "Wheel", CopyNo: 1, Translation: v3.Vec{Z: 100}})
	cv.AddPosPart(PosPart{Parent: "Wheel", Child: "Chamber", CopyNo: 1, Translation: v3.Vec{X: 10}})
	cv.AddPosPart(PosPart{Parent: "Wheel", Child: "Chamber", CopyNo: 2, Translation: v3.Vec{X: -10}, Rotation: geom.RotationZ(math.Pi)})
	cv.AddPosPart(PosPart{Parent: "Chamber", Child: "Roll", CopyNo: 1, Translation: v3.Vec{Y: 5}})
	cv.AddPosPart(PosPart{Parent: "Chamber", Child: "Roll", CopyNo: 2, Translation: v3.Vec{Y: -5}})
	return cv
}

func copyNumbers(h GeoHistory) []int {
	out := make([]int, len(h))
	for i, item := range h {
		out[i] = item.CopyNo
	}
	return out
}

// ---------------------------------------------------------------------------
// Specifics and filter
// ---------------------------------------------------------------------------

func TestSpecificsFetchLastWins(t *testing.T) {
	specs := Specifics{DoubleValue("nStrips", 16), StringValue("other", "x"), DoubleValue("nStrips", 32)}

	v, ok := specs.Fetch("nStrips")
	require.True(t, ok)
	assert.Equal(t, []float64{32}, v.Doubles)

	d, ok := specs.Double("nStrips")
	require.True(t, ok)
	assert.Equal(t, 32.0, d)

	_, ok = specs.Fetch("missing")
	assert.False(t, ok)
	_, ok = specs.Double("other")
	assert.False(t, ok, "string-only entry has no double")
}

func TestSpecificsFilter(t *testing.T) {
	roll := &LogicalPart{Name: "roll", Specifics: Specifics{sensitive, DoubleValue("level", 3)}}
	frame := &LogicalPart{Name: "frame", Specifics: Specifics{StringValue("ReadOutName", "MuonDTHits")}}
	bare := &LogicalPart{Name: "bare"}

	tests := []struct {
		name   string
		filter func() *SpecificsFilter
		want   map[string]bool
	}{
		{
			name:   "no criteria accepts all",
			filter: NewSpecificsFilter,
			want:   map[string]bool{"roll": true, "frame": true, "bare": true},
		},
		{
			name:   "string equality",
			filter: rpcFilter,
			want:   map[string]bool{"roll": true, "frame": false, "bare": false},
		},
		{
			name: "not matches requires attribute",
			filter: func() *SpecificsFilter {
				f := NewSpecificsFilter()
				f.SetCriteria(sensitive, NotMatches, And, true)
				return f
			},
			want: map[string]bool{"roll": false, "frame": true, "bare": false},
		},
		{
			name: "numeric equality",
			filter: func() *SpecificsFilter {
				f := NewSpecificsFilter()
				f.SetCriteria(DoubleValue("level", 3), Matches, And, false)
				return f
			},
			want: map[string]bool{"roll": true, "frame": false, "bare": false},
		},
		{
			name: "or combination",
			filter: func() *SpecificsFilter {
				f := rpcFilter()
				f.SetCriteria(StringValue("ReadOutName", "MuonDTHits"), Matches, Or, true)
				return f
			},
			want: map[string]bool{"roll": true, "frame": true, "bare": false},
		},
		{
			name: "and combination",
			filter: func() *SpecificsFilter {
				f := rpcFilter()
				f.SetCriteria(DoubleValue("level", 4), Matches, And, false)
				return f
			},
			want: map[string]bool{"roll": false, "frame": false, "bare": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.filter()
			for _, lp := range []*LogicalPart{roll, frame, bare} {
				assert.Equalf(t, tt.want[lp.Name], f.Accept(lp), "Accept(%s)", lp.Name)
			}
			assert.False(t, f.Accept(nil))
		})
	}
}

// ---------------------------------------------------------------------------
// Filtered view
// ---------------------------------------------------------------------------

func TestFilteredViewVisitsSensitiveLayer(t *testing.T) {
	fv, err := NewFilteredView(buildStation(), rpcFilter())
	require.NoError(t, err)

	var paths [][]int
	var positions []v3.Vec
	ok, err := fv.FirstChild()
	require.NoError(t, err)
	for ok {
		assert.Equal(t, "Roll", fv.Name())
		paths = append(paths, copyNumbers(fv.GeoHistory()))
		positions = append(positions, fv.Translation())
		ok, err = fv.NextSibling()
		require.NoError(t, err)
	}

	want := [][]int{{0, 1, 1, 1}, {0, 1, 1, 2}, {0, 1, 2, 1}, {0, 1, 2, 2}}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("visited paths mismatch (-want +got):\n%s", diff)
	}

	// Second chamber is rotated by pi about Z, flipping the roll's Y offset.
	require.Len(t, positions, 4)
	assert.InDelta(t, 10, positions[0].X, 1e-9)
	assert.InDelta(t, 5, positions[0].Y, 1e-9)
	assert.InDelta(t, 100, positions[0].Z, 1e-9)
	assert.InDelta(t, -10, positions[2].X, 1e-9)
	assert.InDelta(t, -5, positions[2].Y, 1e-9)
	assert.InDelta(t, 100, positions[2].Z, 1e-9)
}

func TestFilteredViewAccessors(t *testing.T) {
	fv, err := NewFilteredView(buildStation(), rpcFilter())
	require.NoError(t, err)

	ok, err := fv.FirstChild()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []float64{200, 400, 10}, fv.Parameters())
	assert.Equal(t, ShapeBox, fv.Solid().Shape)
	assert.Equal(t, 1, fv.CopyNo())
	strips, ok := fv.Specifics().Double("nStrips")
	require.True(t, ok)
	assert.Equal(t, 32.0, strips)
	assert.True(t, fv.Rotation().IsProper(geom.ProperTolerance))

	// Parameters is a copy.
	p := fv.Parameters()
	p[0] = -1
	assert.Equal(t, 200.0, fv.Parameters()[0])
}

func TestFilteredViewNoMatches(t *testing.T) {
	f := NewSpecificsFilter()
	f.SetCriteria(StringValue("ReadOutName", "MuonCSCHits"), Matches, And, true)
	fv, err := NewFilteredView(buildStation(), f)
	require.NoError(t, err)

	ok, err := fv.FirstChild()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "OCMS", fv.Name(), "position unchanged on the root")

	ok, err = fv.NextSibling()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilteredViewParent(t *testing.T) {
	fv, err := NewFilteredView(buildStation(), rpcFilter())
	require.NoError(t, err)

	ok, err := fv.FirstChild()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fv.Parent())
	assert.Equal(t, "OCMS", fv.Name())
	assert.False(t, fv.Parent())
}

func TestFilteredViewMalformed(t *testing.T) {
	t.Run("missing child part", func(t *testing.T) {
		cv := buildStation()
		cv.AddPosPart(PosPart{Parent: "Wheel", Child: "Ghost", CopyNo: 1})
		fv, err := NewFilteredView(cv, rpcFilter())
		require.NoError(t, err)

		_, err = fv.FirstChild()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDescription))
		var de *DescriptionError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.Path, "Ghost")
	})

	t.Run("cycle", func(t *testing.T) {
		cv := buildStation()
		cv.AddPosPart(PosPart{Parent: "Chamber", Child: "Wheel", CopyNo: 9})
		fv, err := NewFilteredView(cv, rpcFilter())
		require.NoError(t, err)

		_, err = fv.FirstChild()
		require.ErrorIs(t, err, ErrDescription)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("improper rotation", func(t *testing.T) {
		cv := buildStation()
		cv.AddPosPart(PosPart{Parent: "OCMS", Child: "Wheel", CopyNo: 2, Rotation: geom.NewRotation(2, 0, 0, 0, 1, 0, 0, 0, 1)})
		fv, err := NewFilteredView(cv, rpcFilter())
		require.NoError(t, err)

		_, err = fv.FirstChild()
		require.ErrorIs(t, err, ErrDescription)
	})

	t.Run("nil view", func(t *testing.T) {
		_, err := NewFilteredView(nil, rpcFilter())
		require.ErrorIs(t, err, ErrDescription)
	})
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateWellFormed(t *testing.T) {
	cv := buildStation()
	assert.Empty(t, Validate(cv))
	assert.NoError(t, cv.Check())
	assert.Equal(t, 4, cv.PartCount())
	assert.Equal(t, 5, cv.PositionCount())
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cv *CompactView)
		substr string
	}{
		{
			name:   "dangling child",
			mutate: func(cv *CompactView) { cv.AddPosPart(PosPart{Parent: "Wheel", Child: "Nope"}) },
			substr: "is not a logical part",
		},
		{
			name:   "unknown parent",
			mutate: func(cv *CompactView) { cv.AddPosPart(PosPart{Parent: "Nope", Child: "Roll"}) },
			substr: "positions children",
		},
		{
			name:   "cycle",
			mutate: func(cv *CompactView) { cv.AddPosPart(PosPart{Parent: "Roll", Child: "Wheel"}) },
			substr: "cycle detected",
		},
		{
			name: "non-finite parameter",
			mutate: func(cv *CompactView) {
				cv.MustLogicalPart("Roll").Solid.Params[1] = math.Inf(1)
			},
			substr: "not finite",
		},
		{
			name:   "negative copy number",
			mutate: func(cv *CompactView) { cv.AddPosPart(PosPart{Parent: "Wheel", Child: "Chamber", CopyNo: -1}) },
			substr: "negative copy number",
		},
		{
			name: "non-finite translation",
			mutate: func(cv *CompactView) {
				cv.AddPosPart(PosPart{Parent: "Wheel", Child: "Chamber", CopyNo: 3, Translation: v3.Vec{X: math.NaN()}})
			},
			substr: "translation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := buildStation()
			tt.mutate(cv)
			err := cv.Check()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDescription)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestValidateNil(t *testing.T) {
	errs := Validate(nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "nil compact view")
}
