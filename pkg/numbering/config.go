package numbering

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// ErrConfig marks a numbering configuration defect, including an address
// whose shape does not fit the configured fields.
var ErrConfig = errors.New("numbering configuration error")

// Field packs one address component into the identifier.
type Field struct {
	// Name labels the field in decoded identifiers (e.g. "region").
	Name string `yaml:"name" hcl:"name,label"`

	// Level is the address level the value is read from.
	Level int `yaml:"level" hcl:"level"`

	// Bits is the field width.
	Bits int `yaml:"bits" hcl:"bits"`

	// Shift is the bit position of the field's least significant bit.
	Shift int `yaml:"shift" hcl:"shift"`

	// Min is the smallest encodable value; it is stored as zero.
	Min int `yaml:"min" hcl:"min,optional"`

	// UseSuper reads the level's super number instead of its base number.
	UseSuper bool `yaml:"use_super" hcl:"use_super,optional"`
}

// Max returns the largest encodable value.
func (f Field) Max() int {
	return f.Min + (1 << f.Bits) - 1
}

func (f Field) mask() uint32 {
	return uint32((uint64(1)<<f.Bits)-1) << f.Shift
}

// Tag is a constant stamped into every identifier, such as the detector
// and subdetector codes.
type Tag struct {
	Name  string `yaml:"name" hcl:"name,label"`
	Value int    `yaml:"value" hcl:"value"`
	Bits  int    `yaml:"bits" hcl:"bits"`
	Shift int    `yaml:"shift" hcl:"shift"`
}

func (t Tag) mask() uint32 {
	return uint32((uint64(1)<<t.Bits)-1) << t.Shift
}

// Config is the field-width and offset policy of a numbering scheme.
type Config struct {
	// LevelPart divides a CopyNoTag into level and super number.
	LevelPart int `yaml:"level_part" hcl:"level_part"`

	Tags   []Tag   `yaml:"tags" hcl:"tag,block"`
	Fields []Field `yaml:"fields" hcl:"field,block"`
}

// DefaultConfig returns the RPC layout: muon detector 2, subdetector 3,
// and region/ring/station/sector/layer/subsector/roll fields on levels 1..7.
func DefaultConfig() Config {
	return Config{
		LevelPart: 100,
		Tags: []Tag{
			{Name: "detector", Value: MuonDetector, Bits: 4, Shift: 28},
			{Name: "subdetector", Value: RPCSubdetector, Bits: 3, Shift: 25},
		},
		Fields: []Field{
			{Name: "region", Level: 1, Bits: 2, Shift: 0, Min: -1},
			{Name: "ring", Level: 2, Bits: 3, Shift: 2, Min: -2},
			{Name: "station", Level: 3, Bits: 2, Shift: 5, Min: 1},
			{Name: "sector", Level: 4, Bits: 4, Shift: 7, Min: 1},
			{Name: "layer", Level: 5, Bits: 1, Shift: 11, Min: 1},
			{Name: "subsector", Level: 6, Bits: 3, Shift: 12, Min: 1},
			{Name: "roll", Level: 7, Bits: 3, Shift: 15, Min: 0},
		},
	}
}

// Levels returns the distinct configured levels in ascending order.
func (c Config) Levels() []int {
	seen := make(map[int]bool)
	var out []int
	for _, f := range c.Fields {
		if !seen[f.Level] {
			seen[f.Level] = true
			out = append(out, f.Level)
		}
	}
	sort.Ints(out)
	return out
}

// Validate checks that every in-range address packs to a distinct
// identifier: widths are positive, fields and tags fit in 32 bits and do
// not overlap, and no level component is claimed twice.
func (c Config) Validate() error {
	var errs []error
	if c.LevelPart <= 0 {
		errs = append(errs, fmt.Errorf("level_part must be positive, got %d", c.LevelPart))
	}
	if len(c.Fields) == 0 {
		errs = append(errs, errors.New("no fields configured"))
	}

	var used uint32
	names := make(map[string]bool)
	claim := func(kind, name string, bits, shift int, mask func() uint32) {
		if name == "" {
			errs = append(errs, fmt.Errorf("%s with empty name", kind))
		} else if names[name] {
			errs = append(errs, fmt.Errorf("duplicate name %q", name))
		}
		names[name] = true
		if bits <= 0 || shift < 0 || bits+shift > 32 {
			errs = append(errs, fmt.Errorf("%s %q: bits %d at shift %d does not fit in 32 bits", kind, name, bits, shift))
			return
		}
		m := mask()
		if used&m != 0 {
			errs = append(errs, fmt.Errorf("%s %q overlaps another field", kind, name))
		}
		used |= m
	}

	for _, t := range c.Tags {
		claim("tag", t.Name, t.Bits, t.Shift, t.mask)
		if t.Bits > 0 && (t.Value < 0 || t.Value >= 1<<t.Bits) {
			errs = append(errs, fmt.Errorf("tag %q: value %d does not fit in %d bits", t.Name, t.Value, t.Bits))
		}
	}

	type component struct {
		level int
		super bool
	}
	claimed := make(map[component]string)
	for _, f := range c.Fields {
		claim("field", f.Name, f.Bits, f.Shift, f.mask)
		if f.Level < 0 {
			errs = append(errs, fmt.Errorf("field %q: negative level %d", f.Name, f.Level))
		}
		k := component{f.Level, f.UseSuper}
		if other, ok := claimed[k]; ok {
			errs = append(errs, fmt.Errorf("fields %q and %q read the same component of level %d", other, f.Name, f.Level))
		}
		claimed[k] = f.Name
	}
	for _, l := range c.Levels() {
		if _, ok := claimed[component{l, false}]; !ok {
			errs = append(errs, fmt.Errorf("level %d: no field packs its base number", l))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfig, errors.Join(errs...))
	}
	return nil
}

// ParseYAML decodes and validates a YAML configuration.
func ParseYAML(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing yaml: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Detector and subdetector codes of the muon RPC system.
const (
	MuonDetector   = 2
	RPCSubdetector = 3
)

// hclContext exposes the detector codes to HCL expressions, so a tag can
// say value = detector.muon.
func hclContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"detector": cty.ObjectVal(map[string]cty.Value{
				"muon": cty.NumberIntVal(MuonDetector),
			}),
			"subdetector": cty.ObjectVal(map[string]cty.Value{
				"rpc": cty.NumberIntVal(RPCSubdetector),
			}),
		},
	}
}

// ParseHCL decodes and validates an HCL configuration. filename is used in
// diagnostics only.
func ParseHCL(filename string, src []byte) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("%w: failed to parse HCL file %s: %s", ErrConfig, filename, diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, hclContext(), &cfg)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("%w: failed to decode HCL file %s: %s", ErrConfig, filename, diags.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a configuration file, choosing the format by extension
// (.yaml, .yml or .hcl).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".hcl":
		return ParseHCL(path, data)
	}
	return Config{}, fmt.Errorf("%w: unsupported config format %q", ErrConfig, filepath.Ext(path))
}
