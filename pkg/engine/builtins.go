package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/rpcgeom/pkg/ddd"
	"github.com/chazu/rpcgeom/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms description source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: pos-part -> pos_part
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. Comments: ; and ;; line comments become // comments.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only a hyphen between identifier characters is rewritten, so
		// (- 10 5) and negative literals survive.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

type sexpSolid struct {
	solid ddd.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %v)", s.solid.Shape, s.solid.Params)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

type sexpSpecs struct {
	specs ddd.Specifics
}

func (s *sexpSpecs) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(specs %v)", s.specs)
}
func (s *sexpSpecs) Type() *zygo.RegisteredType { return nil }

// sexpPartRef names a logical part so it can be passed to pos-part.
type sexpPartRef struct {
	name string
}

func (p *sexpPartRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(part %q)", p.name)
}
func (p *sexpPartRef) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

type sexpRotation struct {
	rot geom.Rotation
}

func (r *sexpRotation) SexpString(ps *zygo.PrintState) string {
	return "(rotation " + strings.Trim(r.rot.String(), "[]") + ")"
}
func (r *sexpRotation) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats are accepted when integral.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toPartName accepts a part name string or a part reference.
func toPartName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpPartRef:
		return v.name, nil
	case *zygo.SexpStr:
		return v.S, nil
	}
	return "", fmt.Errorf("expected part name or reference, got %T (%s)", s, s.SexpString(nil))
}

func toFloats(args []zygo.Sexp) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toValue converts one specs entry. Numbers become doubles, strings stay
// strings, and a list or array yields a multi-valued entry of one kind.
func toValue(name string, s zygo.Sexp) (ddd.Value, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		return ddd.StringValue(name, v.S), nil
	case *zygo.SexpInt, *zygo.SexpFloat:
		f, _ := toFloat64(v)
		return ddd.DoubleValue(name, f), nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return ddd.Value{}, err
	}
	if len(items) == 0 {
		return ddd.Value{Name: name}, nil
	}
	if _, ok := items[0].(*zygo.SexpStr); ok {
		strs := make([]string, len(items))
		for i, it := range items {
			if strs[i], err = toString(it); err != nil {
				return ddd.Value{}, fmt.Errorf("entry %d: %w", i, err)
			}
		}
		return ddd.StringValue(name, strs...), nil
	}
	ds, err := toFloats(items)
	if err != nil {
		return ddd.Value{}, err
	}
	return ddd.DoubleValue(name, ds...), nil
}

// ---------------------------------------------------------------------------
// Description state
// ---------------------------------------------------------------------------

// description accumulates what the builtins declare during one evaluation.
type description struct {
	root      string
	parts     []*ddd.LogicalPart
	byName    map[string]*ddd.LogicalPart
	positions []ddd.PosPart
}

func newDescription() *description {
	return &description{byName: make(map[string]*ddd.LogicalPart)}
}

// view assembles the compact view in declaration order.
func (d *description) view() *ddd.CompactView {
	root := d.root
	if root == "" {
		root = DefaultRoot
	}
	cv := ddd.New(root)
	for _, lp := range d.parts {
		cv.AddLogicalPart(lp)
	}
	for _, pp := range d.positions {
		cv.AddPosPart(pp)
	}
	return cv
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the description builtins into a zygomys
// environment. The builtins record into d during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, d *description) {

	// -----------------------------------------------------------------------
	// (root "OCMS")
	// -----------------------------------------------------------------------
	env.AddFunction("root", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("root requires exactly one name argument")
		}
		rootName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("root: name: %w", err)
		}
		if d.root != "" && d.root != rootName {
			return zygo.SexpNull, fmt.Errorf("root: already declared as %q", d.root)
		}
		d.root = rootName
		return &sexpPartRef{name: rootName}, nil
	})

	// -----------------------------------------------------------------------
	// (box 200 400 10)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("box requires exactly 3 arguments, got %d", len(args))
		}
		params, err := toFloats(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpSolid{solid: ddd.Solid{Shape: ddd.ShapeBox, Params: params}}, nil
	})

	// -----------------------------------------------------------------------
	// (trap dz theta phi h1 bl1 tl1 alp1 h2 bl2 tl2 alp2)
	// -----------------------------------------------------------------------
	env.AddFunction("trap", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		params, err := toFloats(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("trap: %w", err)
		}
		return &sexpSolid{solid: ddd.Solid{Shape: ddd.ShapeTrap, Params: params}}, nil
	})

	// -----------------------------------------------------------------------
	// (solid p0 p1 ...) -- raw parameters with no declared shape
	// -----------------------------------------------------------------------
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		params, err := toFloats(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: %w", err)
		}
		return &sexpSolid{solid: ddd.Solid{Shape: ddd.ShapeUnknown, Params: params}}, nil
	})

	// -----------------------------------------------------------------------
	// (specs "ReadOutName" "MuonRPCHits" "nStrips" 32 "CopyNoTag" [1 2])
	// -----------------------------------------------------------------------
	env.AddFunction("specs", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args)%2 != 0 {
			return zygo.SexpNull, fmt.Errorf("specs requires name/value pairs, got %d arguments", len(args))
		}
		var specs ddd.Specifics
		for i := 0; i < len(args); i += 2 {
			key, err := toString(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("specs: name %d: %w", i/2, err)
			}
			v, err := toValue(key, args[i+1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("specs: %s: %w", key, err)
			}
			specs = append(specs, v)
		}
		return &sexpSpecs{specs: specs}, nil
	})

	// -----------------------------------------------------------------------
	// (logical-part "RB1" :solid (box ...) :specs (specs ...))
	// -----------------------------------------------------------------------
	env.AddFunction("logical_part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("logical-part requires a name argument")
		}
		partName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("logical-part: name: %w", err)
		}
		if _, exists := d.byName[partName]; exists {
			return zygo.SexpNull, fmt.Errorf("logical-part: %q already defined", partName)
		}

		lp := &ddd.LogicalPart{Name: partName}
		if v, ok := pa.kw["solid"]; ok {
			s, ok := v.(*sexpSolid)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("logical-part: solid: expected solid, got %T", v)
			}
			lp.Solid = s.solid
			lp.Solid.Name = partName
		}
		if v, ok := pa.kw["specs"]; ok {
			s, ok := v.(*sexpSpecs)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("logical-part: specs: expected specs, got %T", v)
			}
			lp.Specifics = s.specs
		}

		d.parts = append(d.parts, lp)
		d.byName[partName] = lp
		return &sexpPartRef{name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 0 0 -150)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		c, err := toFloats(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (rotation xx xy xz yx yy yz zx zy zz)
	// -----------------------------------------------------------------------
	env.AddFunction("rotation", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 9 {
			return zygo.SexpNull, fmt.Errorf("rotation requires exactly 9 arguments, got %d", len(args))
		}
		m, err := toFloats(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotation: %w", err)
		}
		return &sexpRotation{rot: geom.NewRotation(m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])}, nil
	})

	// -----------------------------------------------------------------------
	// (rotate-x 90) (rotate-z 15)  -- degrees
	// -----------------------------------------------------------------------
	axisRotation := func(label string, build func(float64) geom.Rotation) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 1 argument, got %d", label, len(args))
			}
			deg, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", label, err)
			}
			return &sexpRotation{rot: build(deg * math.Pi / 180.0)}, nil
		}
	}
	env.AddFunction("rotate_x", axisRotation("rotate-x", geom.RotationX))
	env.AddFunction("rotate_z", axisRotation("rotate-z", geom.RotationZ))

	// -----------------------------------------------------------------------
	// (pos-part "RB1" :in "Wheel" :copy 2 :at (vec3 0 0 150) :rot (rotate-z 30))
	// -----------------------------------------------------------------------
	env.AddFunction("pos_part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("pos-part requires a child part as first argument")
		}
		child, err := toPartName(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pos-part: child: %w", err)
		}

		pp := ddd.PosPart{Child: child, CopyNo: 1, Rotation: geom.Identity()}
		v, ok := pa.kw["in"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("pos-part: %s: missing :in parent", child)
		}
		if pp.Parent, err = toPartName(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("pos-part: in: %w", err)
		}
		if v, ok := pa.kw["copy"]; ok {
			if pp.CopyNo, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("pos-part: copy: %w", err)
			}
		}
		if v, ok := pa.kw["at"]; ok {
			vec, ok := v.(*sexpVec3)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("pos-part: at: expected vec3, got %T", v)
			}
			pp.Translation = vec.vec
		}
		if v, ok := pa.kw["rot"]; ok {
			rot, ok := v.(*sexpRotation)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("pos-part: rot: expected rotation, got %T", v)
			}
			pp.Rotation = rot.rot
		}

		d.positions = append(d.positions, pp)
		return &sexpPartRef{name: child}, nil
	})
}
