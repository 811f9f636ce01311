// Package engine loads detector descriptions written in a small Lisp
// dialect. It wraps zygomys in a sandboxed environment and produces a
// ddd.CompactView from source text.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/rpcgeom/pkg/ddd"
	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultRoot names the root logical part when the source declares none.
const DefaultRoot = "world"

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in description code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for description loading.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate takes description source code and produces a new CompactView.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns view + nil errors + nil error
//   - On parse/eval failure: returns nil view + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*ddd.CompactView, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	done := make(chan loaded, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- loaded{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		cv, evalErrs, err := e.evaluate(source)
		done <- loaded{view: cv, errors: evalErrs, err: err}
	}()

	return e.await(gen, done)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*ddd.CompactView, []EvalError, error) {
	// Empty source is a valid description holding only the root.
	if strings.TrimSpace(source) == "" {
		return ddd.New(DefaultRoot), nil, nil
	}

	// Sandbox mode prevents description code from touching the filesystem
	// or making syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	desc := newDescription()
	registerBuiltins(env, desc)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	return desc.view(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
