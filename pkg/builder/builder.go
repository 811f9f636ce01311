// Package builder turns a detector description into the RPC reconstruction
// geometry. Build is a pure function of its inputs: it keeps no state
// between calls and returns either a complete Geometry or a BuildError.
package builder

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/chazu/rpcgeom/pkg/ddd"
	"github.com/chazu/rpcgeom/pkg/numbering"
	"github.com/chazu/rpcgeom/pkg/rpc"
	"github.com/chazu/rpcgeom/pkg/surface"
)

// Build walks the sensitive parts of cv and builds one roll for each.
// Any failure aborts the build; the returned error is always a *BuildError
// and no partial Geometry is returned.
func Build(cv *ddd.CompactView, cfg numbering.Config, opts ...Option) (geo *rpc.Geometry, err error) {
	b := &build{log: slog.Default()}

	defer func() {
		if r := recover(); r != nil {
			err = &BuildError{Kind: KindUnexpected, Node: b.node, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			geo = nil
			err = classify(err, b.node)
			b.log.Error("RPC geometry build failed.", "kind", err.(*BuildError).Kind, "node", b.node, "error", err)
		}
	}()

	b.opts = newOptions(opts)
	b.log = b.opts.logger
	return b.run(cv, cfg)
}

// build carries the state of one Build call.
type build struct {
	opts    options
	log     *slog.Logger
	numbers *numbering.Builder
	scheme  *numbering.Scheme
	factory surface.Factory
	geo     *rpc.Geometry
	node    string
}

func (b *build) run(cv *ddd.CompactView, cfg numbering.Config) (*rpc.Geometry, error) {
	scheme, err := numbering.NewScheme(cfg)
	if err != nil {
		return nil, err
	}
	numbers, err := numbering.NewBuilder(cfg)
	if err != nil {
		return nil, err
	}
	if err := cv.Check(); err != nil {
		return nil, err
	}
	fv, err := ddd.NewFilteredView(cv, b.opts.filter)
	if err != nil {
		return nil, err
	}

	b.scheme = scheme
	b.numbers = numbers
	b.factory = surface.Factory{Unit: b.opts.unit}
	b.geo = rpc.New()
	b.log.Debug("Building RPC geometry.", "root", cv.Root(), "unit", b.opts.unit, "fields", scheme.FieldNames())

	more, err := fv.FirstChild()
	for more && err == nil {
		if err = b.visit(fv); err != nil {
			break
		}
		var down bool
		if down, err = fv.FirstChild(); err != nil || down {
			more = down
			continue
		}
		more, err = advance(fv)
	}
	if err != nil {
		return nil, err
	}

	b.node = ""
	b.log.Info("RPC geometry built.", "rolls", b.geo.Len(),
		"barrel", len(b.geo.Barrel()), "endcap", len(b.geo.Endcap()))
	return b.geo, nil
}

// advance moves to the next node in pre-order once the current subtree is
// done. It returns false when the walk is exhausted.
func advance(fv *ddd.FilteredView) (bool, error) {
	for {
		next, err := fv.NextSibling()
		if err != nil || next {
			return next, err
		}
		if !fv.Parent() {
			return false, nil
		}
	}
}

// visit builds the roll for the current node and adds it to the geometry.
func (b *build) visit(fv *ddd.FilteredView) error {
	history := fv.GeoHistory()
	b.node = history.String()
	log := b.log.With("node", b.node)

	bn, err := b.numbers.BaseNumber(history)
	if err != nil {
		return err
	}
	raw, err := b.scheme.UnitNumber(bn)
	if err != nil {
		return err
	}
	id := rpc.DetID(raw)

	strips, err := b.strips(fv.Specifics(), log)
	if err != nil {
		return err
	}

	solid := fv.Solid()
	params := fv.Parameters()
	res, err := b.factory.Build(params, fv.Translation(), fv.Rotation())
	if err != nil {
		return err
	}
	if declared, ok := declaredClass(solid.Shape); ok && declared != res.Class {
		log.Warn("Declared shape disagrees with parameter count.",
			"shape", solid.Shape, "params", len(params), "class", res.Class)
	}
	if !res.RightHanded {
		log.Warn("Endcap roll frame is left-handed after axis correction.",
			"z", fv.Translation().Z, "det", res.Plane.Rotation().Det())
	}

	specs := rpc.NewRollSpecs(res.Class, fv.Name(), res.Derived, strips)
	b.geo.Add(rpc.NewRoll(id, res.Plane, specs))
	log.Debug("Added roll.", "id", id, "address", bn.String(), "class", res.Class, "strips", strips)
	return nil
}

// strips reads the strip count. A missing attribute is not an error.
func (b *build) strips(specs ddd.Specifics, log *slog.Logger) (int, error) {
	v, ok := specs.Double(b.opts.stripsAttr)
	if !ok {
		log.Warn("Strip count missing, using 0.", "attribute", b.opts.stripsAttr)
		return 0, nil
	}
	if v < 0 || v != math.Trunc(v) {
		return 0, &ddd.DescriptionError{
			Path:    b.node,
			Message: fmt.Sprintf("%s = %g is not a non-negative integer", b.opts.stripsAttr, v),
		}
	}
	return int(v), nil
}

func declaredClass(k ddd.ShapeKind) (surface.ShapeClass, bool) {
	switch k {
	case ddd.ShapeBox:
		return surface.Barrel, true
	case ddd.ShapeTrap:
		return surface.Endcap, true
	}
	return 0, false
}
