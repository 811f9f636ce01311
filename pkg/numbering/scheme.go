package numbering

import (
	"fmt"
	"slices"
)

// Scheme packs BaseNumbers into identifiers under a validated Config.
type Scheme struct {
	cfg    Config
	levels []int
	supers map[int]bool // levels whose super number is packed
	stamp  uint32
}

// NewScheme validates cfg and returns a Scheme for it.
func NewScheme(cfg Config) (*Scheme, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var stamp uint32
	for _, t := range cfg.Tags {
		stamp |= uint32(t.Value) << t.Shift
	}
	supers := make(map[int]bool)
	for _, f := range cfg.Fields {
		if f.UseSuper {
			supers[f.Level] = true
		}
	}
	return &Scheme{cfg: cfg, levels: cfg.Levels(), supers: supers, stamp: stamp}, nil
}

// Config returns the scheme's configuration.
func (s *Scheme) Config() Config {
	return s.cfg
}

// UnitNumber packs bn. The address must list exactly the configured levels
// in ascending order, every field value must lie in its range, and a level
// may carry a nonzero super number only when a field packs it.
func (s *Scheme) UnitNumber(bn BaseNumber) (uint32, error) {
	got := make([]int, len(bn))
	for i, l := range bn {
		got[i] = l.Level
	}
	if !slices.Equal(got, s.levels) {
		return 0, fmt.Errorf("%w: address %s has levels %v, want %v", ErrConfig, bn, got, s.levels)
	}
	for _, l := range bn {
		if l.Super != 0 && !s.supers[l.Level] {
			return 0, fmt.Errorf("%w: address %s: level %d super number %d is not encoded",
				ErrConfig, bn, l.Level, l.Super)
		}
	}

	id := s.stamp
	for _, f := range s.cfg.Fields {
		l, _ := bn.Find(f.Level)
		v := l.Base
		if f.UseSuper {
			v = l.Super
		}
		if v < f.Min || v > f.Max() {
			return 0, fmt.Errorf("%w: address %s: %s = %d outside [%d, %d]",
				ErrConfig, bn, f.Name, v, f.Min, f.Max())
		}
		id |= uint32(v-f.Min) << f.Shift
	}
	return id, nil
}

// Decode unpacks id into its named field values. It fails when the tag bits
// do not match the configuration.
func (s *Scheme) Decode(id uint32) (map[string]int, error) {
	for _, t := range s.cfg.Tags {
		if got := int((id & t.mask()) >> t.Shift); got != t.Value {
			return nil, fmt.Errorf("identifier 0x%08x: %s = %d, want %d", id, t.Name, got, t.Value)
		}
	}
	out := make(map[string]int, len(s.cfg.Fields))
	for _, f := range s.cfg.Fields {
		out[f.Name] = int((id&f.mask())>>f.Shift) + f.Min
	}
	return out, nil
}

// FieldNames returns the field names in configuration order.
func (s *Scheme) FieldNames() []string {
	out := make([]string, len(s.cfg.Fields))
	for i, f := range s.cfg.Fields {
		out[i] = f.Name
	}
	return out
}
