package ddd

import (
	"fmt"
	"strings"

	"github.com/chazu/rpcgeom/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// HistoryItem is one step of the path from the root to a node.
type HistoryItem struct {
	LogicalPart *LogicalPart
	CopyNo      int
}

// GeoHistory is the full root-to-node path. The root is the first item.
type GeoHistory []HistoryItem

func (h GeoHistory) String() string {
	parts := make([]string, len(h))
	for i, item := range h {
		parts[i] = fmt.Sprintf("%s[%d]", item.LogicalPart.Name, item.CopyNo)
	}
	return strings.Join(parts, "/")
}

// node is one expanded position with its global placement.
type node struct {
	history     GeoHistory
	translation v3.Vec        // global, description units
	rotation    geom.Rotation // local to global
}

func (n *node) part() *LogicalPart {
	return n.history[len(n.history)-1].LogicalPart
}

// level is one layer of the filtered tree under the walker.
type level struct {
	nodes []*node
	index int
}

// FilteredView walks the tree formed by the parts a Filter accepts: each
// accepted part is a child of its nearest accepted ancestor, or of the root.
// It moves forward only and is not safe for concurrent use.
type FilteredView struct {
	cv     *CompactView
	filter Filter
	root   *node
	levels []level
}

// NewFilteredView positions a walker on the root of cv.
func NewFilteredView(cv *CompactView, filter Filter) (*FilteredView, error) {
	if cv == nil {
		return nil, descErrorf("", "nil compact view")
	}
	root := cv.LogicalPart(cv.root)
	if root == nil {
		return nil, descErrorf(cv.root, "root logical part is missing")
	}
	if filter == nil {
		filter = NewSpecificsFilter()
	}
	return &FilteredView{
		cv:     cv,
		filter: filter,
		root: &node{
			history:  GeoHistory{{LogicalPart: root}},
			rotation: geom.Identity(),
		},
	}, nil
}

func (fv *FilteredView) current() *node {
	if len(fv.levels) == 0 {
		return fv.root
	}
	top := fv.levels[len(fv.levels)-1]
	return top.nodes[top.index]
}

// FirstChild moves to the first accepted descendant of the current node. It
// returns false, leaving the position unchanged, when there is none.
func (fv *FilteredView) FirstChild() (bool, error) {
	kids, err := fv.acceptedBelow(fv.current())
	if err != nil {
		return false, err
	}
	if len(kids) == 0 {
		return false, nil
	}
	fv.levels = append(fv.levels, level{nodes: kids})
	return true, nil
}

// NextSibling moves to the next accepted node on the current level. It
// returns false, leaving the position unchanged, when the level is done.
func (fv *FilteredView) NextSibling() (bool, error) {
	if len(fv.levels) == 0 {
		return false, nil
	}
	top := &fv.levels[len(fv.levels)-1]
	if top.index+1 >= len(top.nodes) {
		return false, nil
	}
	top.index++
	return true, nil
}

// Parent moves back up one filtered level.
func (fv *FilteredView) Parent() bool {
	if len(fv.levels) == 0 {
		return false
	}
	fv.levels = fv.levels[:len(fv.levels)-1]
	return true
}

// acceptedBelow collects, in depth-first order, the accepted descendants of
// n that have no accepted ancestor between them and n.
func (fv *FilteredView) acceptedBelow(n *node) ([]*node, error) {
	var out []*node
	var walk func(parent *node) error
	walk = func(parent *node) error {
		for _, pp := range fv.cv.Children(parent.part().Name) {
			child, err := fv.expand(parent, pp)
			if err != nil {
				return err
			}
			if fv.filter.Accept(child.part()) {
				out = append(out, child)
				continue
			}
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(n); err != nil {
		return nil, err
	}
	return out, nil
}

// expand places one position under parent, checking the description as it
// goes so that a malformed tree fails the walk instead of producing garbage.
func (fv *FilteredView) expand(parent *node, pp PosPart) (*node, error) {
	path := parent.history.String() + "/" + pp.Child
	lp := fv.cv.LogicalPart(pp.Child)
	if lp == nil {
		return nil, descErrorf(path, "child is not a logical part")
	}
	for _, h := range parent.history {
		if h.LogicalPart.Name == lp.Name {
			return nil, descErrorf(path, "cycle detected")
		}
	}
	if err := checkPosition(path, pp); err != nil {
		return nil, err
	}

	history := make(GeoHistory, len(parent.history), len(parent.history)+1)
	copy(history, parent.history)
	history = append(history, HistoryItem{LogicalPart: lp, CopyNo: pp.CopyNo})

	return &node{
		history:     history,
		translation: parent.translation.Add(parent.rotation.Apply(pp.Translation)),
		rotation:    parent.rotation.Mul(pp.Rotation),
	}, nil
}

// LogicalPart returns the current logical part.
func (fv *FilteredView) LogicalPart() *LogicalPart {
	return fv.current().part()
}

// Name returns the current logical part name.
func (fv *FilteredView) Name() string {
	return fv.current().part().Name
}

// CopyNo returns the copy number of the current position.
func (fv *FilteredView) CopyNo() int {
	h := fv.current().history
	return h[len(h)-1].CopyNo
}

// Parameters returns a copy of the current solid's raw parameters.
func (fv *FilteredView) Parameters() []float64 {
	src := fv.current().part().Solid.Params
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// Solid returns the current solid.
func (fv *FilteredView) Solid() Solid {
	return fv.current().part().Solid
}

// Specifics returns the current attribute table.
func (fv *FilteredView) Specifics() Specifics {
	return fv.current().part().Specifics
}

// Translation returns the global position of the current node in
// description units.
func (fv *FilteredView) Translation() v3.Vec {
	return fv.current().translation
}

// Rotation returns the local-to-global rotation of the current node.
func (fv *FilteredView) Rotation() geom.Rotation {
	return fv.current().rotation
}

// GeoHistory returns a copy of the root-to-node path.
func (fv *FilteredView) GeoHistory() GeoHistory {
	h := fv.current().history
	out := make(GeoHistory, len(h))
	copy(out, h)
	return out
}
