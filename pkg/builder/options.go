package builder

import (
	"io"
	"log/slog"

	"github.com/chazu/rpcgeom/pkg/ddd"
	"github.com/chazu/rpcgeom/pkg/units"
)

// Defaults for the sensitive-layer selection and strip lookup.
const (
	ReadOutAttribute       = "ReadOutName"
	SensitiveReadOut       = "MuonRPCHits"
	DefaultStripsAttribute = "nStrips"
)

type options struct {
	filter     ddd.Filter
	unit       float64
	stripsAttr string
	logger     *slog.Logger
}

// Option configures Build.
type Option func(*options)

// WithFilter replaces the sensitive-layer filter.
func WithFilter(f ddd.Filter) Option {
	return func(o *options) { o.filter = f }
}

// WithUnit sets the number of raw description units per output unit.
func WithUnit(u float64) Option {
	return func(o *options) { o.unit = u }
}

// WithStripsAttribute names the specific holding the strip count.
func WithStripsAttribute(name string) Option {
	return func(o *options) { o.stripsAttr = name }
}

// WithLogger sets the logger. Build logs to slog.Default otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// DefaultFilter selects parts whose ReadOutName is MuonRPCHits, compared
// as strings.
func DefaultFilter() *ddd.SpecificsFilter {
	f := ddd.NewSpecificsFilter()
	f.SetCriteria(ddd.StringValue(ReadOutAttribute, SensitiveReadOut), ddd.Matches, ddd.And, true)
	return f
}

func newOptions(opts []Option) options {
	o := options{
		unit:       units.Centimeter,
		stripsAttr: DefaultStripsAttribute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.filter == nil {
		o.filter = DefaultFilter()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// NewLogger creates a logger from level ("debug", "info", "warn", "error")
// and format ("json" or text) strings. It does not set the global logger.
func NewLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}
