// Package numbering turns a node's geometric history into a hierarchical
// address and packs that address into a 32-bit detector identifier.
package numbering

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/rpcgeom/pkg/ddd"
)

// Specific names read from the parts along a history.
const (
	CopyNoTagAttribute    = "CopyNoTag"
	CopyNoOffsetAttribute = "CopyNoOffset"
)

// Level is one entry of a BaseNumber.
type Level struct {
	Level int // hierarchy level, tag / LevelPart
	Super int // super number, tag % LevelPart
	Base  int // copy number plus offset
}

// BaseNumber is the ordered, root-first address of a node.
type BaseNumber []Level

func (b BaseNumber) String() string {
	parts := make([]string, len(b))
	for i, l := range b {
		parts[i] = fmt.Sprintf("%d:%d:%d", l.Level, l.Super, l.Base)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Find returns the entry for level, if present.
func (b BaseNumber) Find(level int) (Level, bool) {
	for _, l := range b {
		if l.Level == level {
			return l, true
		}
	}
	return Level{}, false
}

// Builder converts geometric histories to BaseNumbers. It holds no state
// besides its configuration and is safe for concurrent use.
type Builder struct {
	levelPart int
}

// NewBuilder returns a Builder using cfg.LevelPart as the tag divisor.
func NewBuilder(cfg Config) (*Builder, error) {
	if cfg.LevelPart <= 0 {
		return nil, fmt.Errorf("%w: level_part must be positive, got %d", ErrConfig, cfg.LevelPart)
	}
	return &Builder{levelPart: cfg.LevelPart}, nil
}

// BaseNumber walks history root first. Only parts carrying a numeric
// CopyNoTag specific contribute a level.
func (b *Builder) BaseNumber(history ddd.GeoHistory) (BaseNumber, error) {
	var out BaseNumber
	for _, item := range history {
		lp := item.LogicalPart
		if lp == nil {
			continue
		}
		tag, ok := lp.Specifics.Double(CopyNoTagAttribute)
		if !ok {
			continue
		}
		if tag != math.Trunc(tag) || tag < 0 {
			return nil, fmt.Errorf("%w: %s: %s %g is not a non-negative integer",
				ErrConfig, lp.Name, CopyNoTagAttribute, tag)
		}
		offset := 0.0
		if v, ok := lp.Specifics.Double(CopyNoOffsetAttribute); ok {
			offset = v
		}
		t := int(tag)
		out = append(out, Level{
			Level: t / b.levelPart,
			Super: t % b.levelPart,
			Base:  item.CopyNo + int(offset),
		})
	}
	return out, nil
}
