package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/rpcgeom/pkg/ddd"
)

// EvalTimeout is the default limit for loading one description.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout reports a description that did not finish loading in time.
	ErrTimeout = errors.New("description evaluation timed out")
	// ErrSuperseded reports a load whose result was discarded because a
	// newer Evaluate call started while it ran.
	ErrSuperseded = errors.New("description evaluation superseded")
)

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the evaluation limit. Non-positive values keep
// EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// loaded is the outcome of one sandboxed load.
type loaded struct {
	view   *ddd.CompactView
	errors []EvalError
	err    error
}

// latest reports whether gen is still the newest evaluation.
func (e *Engine) latest(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// await returns the outcome of evaluation gen. A load still running after
// the engine's limit is abandoned; its goroutine finishes on its own and the
// buffered channel absorbs the late result.
func (e *Engine) await(gen uint64, done <-chan loaded) (*ddd.CompactView, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if !e.latest(gen) {
			return nil, nil, fmt.Errorf("%w (evaluation %d)", ErrSuperseded, gen)
		}
		return res.view, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
