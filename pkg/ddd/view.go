package ddd

import (
	"fmt"

	"github.com/chazu/rpcgeom/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// LogicalPart is a named piece of the description: a solid plus specifics.
// The same logical part may be positioned many times.
type LogicalPart struct {
	Name      string    `json:"name"`
	Solid     Solid     `json:"solid"`
	Specifics Specifics `json:"specifics,omitempty"`
}

// PosPart positions a child logical part inside a parent. Translation is in
// description units and Rotation maps child-local to parent coordinates.
type PosPart struct {
	Parent      string        `json:"parent"`
	Child       string        `json:"child"`
	CopyNo      int           `json:"copy_no"`
	Translation v3.Vec        `json:"translation"`
	Rotation    geom.Rotation `json:"rotation"`
}

// CompactView is the read-only hierarchy handed to builders. It is built
// once by a loader and may be shared read-only across independent builds.
type CompactView struct {
	root     string
	parts    map[string]*LogicalPart
	children map[string][]PosPart // parent name -> positions, insertion order
}

// New creates a compact view whose root is an empty logical part.
func New(root string) *CompactView {
	cv := &CompactView{
		root:     root,
		parts:    make(map[string]*LogicalPart),
		children: make(map[string][]PosPart),
	}
	cv.parts[root] = &LogicalPart{Name: root}
	return cv
}

// AddLogicalPart registers a logical part, replacing any previous part with
// the same name.
func (cv *CompactView) AddLogicalPart(lp *LogicalPart) {
	cv.parts[lp.Name] = lp
}

// AddPosPart positions a child inside a parent. A zero rotation is treated
// as the identity. It does not check that either part exists; Validate does.
func (cv *CompactView) AddPosPart(pp PosPart) {
	if pp.Rotation == (geom.Rotation{}) {
		pp.Rotation = geom.Identity()
	}
	cv.children[pp.Parent] = append(cv.children[pp.Parent], pp)
}

// Root returns the root logical part name.
func (cv *CompactView) Root() string {
	return cv.root
}

// LogicalPart returns the named logical part, or nil.
func (cv *CompactView) LogicalPart(name string) *LogicalPart {
	return cv.parts[name]
}

// MustLogicalPart returns the named logical part, or panics.
func (cv *CompactView) MustLogicalPart(name string) *LogicalPart {
	lp := cv.LogicalPart(name)
	if lp == nil {
		panic(fmt.Sprintf("ddd: no logical part named %q", name))
	}
	return lp
}

// Children returns the positions placed inside the named part.
func (cv *CompactView) Children(name string) []PosPart {
	return cv.children[name]
}

// PartCount returns the number of logical parts, root included.
func (cv *CompactView) PartCount() int {
	return len(cv.parts)
}

// PositionCount returns the total number of positioned children.
func (cv *CompactView) PositionCount() int {
	n := 0
	for _, pps := range cv.children {
		n += len(pps)
	}
	return n
}
