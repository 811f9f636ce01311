package ddd

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/chazu/rpcgeom/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrDescription is matched by every DescriptionError via errors.Is.
var ErrDescription = errors.New("ddd: malformed description")

// DescriptionError reports a malformed or inconsistent description. It is
// always fatal to a build.
type DescriptionError struct {
	Path    string // logical-part path where the problem was found, may be empty
	Message string
}

func (e *DescriptionError) Error() string {
	if e.Path == "" {
		return "ddd: " + e.Message
	}
	return fmt.Sprintf("ddd: %s: %s", e.Path, e.Message)
}

// Is reports whether target is ErrDescription.
func (e *DescriptionError) Is(target error) bool {
	return target == ErrDescription
}

func descErrorf(path, format string, args ...any) *DescriptionError {
	return &DescriptionError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Validate runs the structural checks on a compact view and returns every
// finding. An empty slice means the view is well formed. It never mutates
// the view.
func Validate(cv *CompactView) []*DescriptionError {
	if cv == nil {
		return []*DescriptionError{descErrorf("", "nil compact view")}
	}
	var errs []*DescriptionError
	if cv.LogicalPart(cv.root) == nil {
		errs = append(errs, descErrorf(cv.root, "root logical part is missing"))
	}
	errs = append(errs, validateReferences(cv)...)
	errs = append(errs, validateParts(cv)...)
	errs = append(errs, validatePositions(cv)...)
	errs = append(errs, validateAcyclic(cv)...)
	return errs
}

// Check returns nil for a well-formed view, or all findings joined.
func (cv *CompactView) Check() error {
	found := Validate(cv)
	if len(found) == 0 {
		return nil
	}
	errs := make([]error, len(found))
	for i, e := range found {
		errs[i] = e
	}
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// validateReferences checks that every position names existing parts.
func validateReferences(cv *CompactView) []*DescriptionError {
	var errs []*DescriptionError
	for _, parent := range sortedKeys(cv.children) {
		if cv.LogicalPart(parent) == nil {
			errs = append(errs, descErrorf(parent, "positions children but is not a logical part"))
		}
		for _, pp := range cv.children[parent] {
			if cv.LogicalPart(pp.Child) == nil {
				errs = append(errs, descErrorf(parent, "child %q copy %d is not a logical part", pp.Child, pp.CopyNo))
			}
		}
	}
	return errs
}

func validateParts(cv *CompactView) []*DescriptionError {
	var errs []*DescriptionError
	for _, name := range sortedKeys(cv.parts) {
		lp := cv.parts[name]
		if lp.Name == "" {
			errs = append(errs, descErrorf(name, "logical part has no name"))
		}
		for i, p := range lp.Solid.Params {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				errs = append(errs, descErrorf(name, "solid parameter %d is not finite", i))
			}
		}
	}
	return errs
}

func checkPosition(path string, pp PosPart) *DescriptionError {
	if pp.CopyNo < 0 {
		return descErrorf(path, "negative copy number %d", pp.CopyNo)
	}
	if !finiteVec(pp.Translation) {
		return descErrorf(path, "translation %v is not finite", pp.Translation)
	}
	if !pp.Rotation.IsProper(geom.ProperTolerance) {
		return descErrorf(path, "rotation %v is not a proper rotation", pp.Rotation)
	}
	return nil
}

func validatePositions(cv *CompactView) []*DescriptionError {
	var errs []*DescriptionError
	for _, parent := range sortedKeys(cv.children) {
		for _, pp := range cv.children[parent] {
			if err := checkPosition(parent+"/"+pp.Child, pp); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// validateAcyclic checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = on the current path, black (2) = done.
// Reaching a gray part means the hierarchy loops back on itself.
func validateAcyclic(cv *CompactView) []*DescriptionError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var path []string
	var errs []*DescriptionError

	var visit func(name string) bool
	visit = func(name string) bool {
		switch color[name] {
		case black:
			return false
		case gray:
			errs = append(errs, descErrorf(strings.Join(append(path, name), "/"), "cycle detected"))
			return true
		}
		color[name] = gray
		path = append(path, name)
		for _, pp := range cv.children[name] {
			if visit(pp.Child) {
				return true
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return false
	}

	for _, name := range sortedKeys(cv.parts) {
		if color[name] == white && visit(name) {
			break
		}
	}
	return errs
}

func finiteVec(v v3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
