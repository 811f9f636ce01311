package main

import (
	"log/slog"
	"math"

	"github.com/chazu/rpcgeom/pkg/builder"
	"github.com/chazu/rpcgeom/pkg/engine"
	"github.com/chazu/rpcgeom/pkg/mesh"
	"github.com/chazu/rpcgeom/pkg/numbering"
	"github.com/chazu/rpcgeom/pkg/rpc"
	"github.com/chazu/rpcgeom/pkg/surface"
)

// App runs the description → geometry → mesh pipeline.
type App struct {
	engine *engine.Engine
	cfg    numbering.Config
	opts   []builder.Option
	tess   mesh.Tessellator
	logger *slog.Logger
}

// RollData is the JSON form of one roll. Extents are half extents in the
// output unit, as stored by the surface bounds.
type RollData struct {
	ID            uint32     `json:"id"`
	DetID         string     `json:"detId"`
	Fields        any        `json:"fields,omitempty"`
	Name          string     `json:"name"`
	Class         string     `json:"class"`
	Params        []float64  `json:"params"`
	Position      [3]float64 `json:"position"`
	Rotation      [9]float64 `json:"rotation"`
	HalfWidth     float64    `json:"halfWidth"`
	HalfLength    float64    `json:"halfLength"`
	HalfThickness float64    `json:"halfThickness"`
	HalfBottom    float64    `json:"halfBottom,omitempty"`
	HalfTop       float64    `json:"halfTop,omitempty"`
}

// EvalErrorData is a JSON-serializable error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full pipeline output.
type EvalResult struct {
	Rolls  []RollData      `json:"rolls"`
	Meshes []*mesh.Mesh    `json:"meshes,omitempty"`
	Errors []EvalErrorData `json:"errors"`
}

// NewApp creates an App building with cfg.
func NewApp(cfg numbering.Config, logger *slog.Logger, opts ...builder.Option) *App {
	return &App{
		engine: engine.NewEngine(),
		cfg:    cfg,
		opts:   append([]builder.Option{builder.WithLogger(logger)}, opts...),
		logger: logger,
	}
}

// Evaluate takes description source and returns the built rolls, and their
// meshes when withMeshes is set.
func (a *App) Evaluate(source string, withMeshes bool) EvalResult {
	result := EvalResult{
		Rolls:  []RollData{},
		Errors: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a compact view.
	cv, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.logger.Error("Evaluate fatal error.", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 2: Build the roll geometry.
	g, err := builder.Build(cv, a.cfg, a.opts...)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	scheme, err := numbering.NewScheme(a.cfg)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, r := range g.Rolls() {
		result.Rolls = append(result.Rolls, rollData(r, scheme))
	}

	// Step 3: Optionally tessellate the roll surfaces.
	if withMeshes {
		meshes, err := a.tess.Tessellate(g)
		if err != nil {
			a.logger.Error("Tessellate error.", "error", err)
			result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
			return result
		}
		result.Meshes = meshes
	}

	return result
}

func rollData(r *rpc.Roll, scheme *numbering.Scheme) RollData {
	specs := r.Specs()
	plane := r.Surface()
	pos := plane.Position()
	d := RollData{
		ID:       uint32(r.ID()),
		DetID:    r.ID().String(),
		Name:     specs.Name,
		Class:    specs.Class.String(),
		Params:   specs.Params,
		Position: [3]float64{pos.X, pos.Y, pos.Z},
		Rotation: plane.Rotation(),
	}
	switch b := plane.Bounds().(type) {
	case surface.RectangularBounds:
		d.HalfWidth, d.HalfLength, d.HalfThickness = b.HalfWidth, b.HalfLength, b.HalfThickness
	case surface.TrapezoidalBounds:
		d.HalfWidth = math.Max(b.HalfBottom, b.HalfTop)
		d.HalfLength, d.HalfThickness = b.Apothem, b.HalfThickness
		d.HalfBottom, d.HalfTop = b.HalfBottom, b.HalfTop
	}
	if fields, err := scheme.Decode(uint32(r.ID())); err == nil {
		d.Fields = fields
	}
	return d
}
