// Command rpcgeom builds the RPC roll geometry from a Lisp detector
// description and prints it as JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chazu/rpcgeom/pkg/builder"
	"github.com/chazu/rpcgeom/pkg/numbering"
	"github.com/chazu/rpcgeom/pkg/units"
)

// ExitError carries a process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// options are the parsed command-line settings.
type options struct {
	description string
	config      string
	unit        float64
	meshes      bool
	logLevel    string
	logFormat   string
}

func parseArgs(args []string, output io.Writer) (*options, bool, error) {
	flagSet := flag.NewFlagSet("rpcgeom", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
rpcgeom - build RPC roll geometry from a detector description.

Usage:
  rpcgeom [options] DESCRIPTION

Arguments:
  DESCRIPTION
    Path to a Lisp detector description.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Numbering configuration (.yaml, .yml or .hcl). Built-in RPC layout if empty.")
	unitFlag := flagSet.String("unit", "cm", "Output length unit: 'mm', 'cm' or 'm'.")
	meshesFlag := flagSet.Bool("meshes", false, "Include tessellated roll meshes in the output.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "exactly one description path is required"}
	}

	unit, err := units.Parse(strings.ToLower(*unitFlag))
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return &options{
		description: flagSet.Arg(0),
		config:      *configFlag,
		unit:        unit,
		meshes:      *meshesFlag,
		logLevel:    strings.ToLower(*logLevelFlag),
		logFormat:   strings.ToLower(*logFormatFlag),
	}, false, nil
}

// run is main without the process exit, so tests can drive it.
func run(args []string, stdout, stderr io.Writer) int {
	opts, exit, err := parseArgs(args, stderr)
	if exit {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		var ee *ExitError
		if errors.As(err, &ee) {
			return ee.Code
		}
		return 1
	}

	logger := builder.NewLogger(opts.logLevel, opts.logFormat, stderr)

	cfg := numbering.DefaultConfig()
	if opts.config != "" {
		if cfg, err = numbering.LoadConfig(opts.config); err != nil {
			logger.Error("Failed to load numbering configuration.", "path", opts.config, "error", err)
			return 1
		}
	}

	source, err := os.ReadFile(opts.description)
	if err != nil {
		logger.Error("Failed to read description.", "path", opts.description, "error", err)
		return 1
	}

	app := NewApp(cfg, logger, builder.WithUnit(opts.unit))
	result := app.Evaluate(string(source), opts.meshes)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("Failed to write result.", "error", err)
		return 1
	}
	if len(result.Errors) > 0 {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
