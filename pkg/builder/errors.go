package builder

import (
	"errors"
	"fmt"

	"github.com/chazu/rpcgeom/pkg/ddd"
)

// Kind separates input defects from everything else.
type Kind int

const (
	// KindDescription means the detector description is malformed or
	// inconsistent.
	KindDescription Kind = iota + 1
	// KindUnexpected covers configuration defects, impossible shapes and
	// recovered panics.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindDescription:
		return "description"
	case KindUnexpected:
		return "unexpected"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// BuildError is the only error type returned by Build.
type BuildError struct {
	Kind Kind
	Node string // geometric history of the node being built, if any
	Err  error
}

func (e *BuildError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("rpc geometry: %s error at %s: %v", e.Kind, e.Node, e.Err)
	}
	return fmt.Sprintf("rpc geometry: %s error: %v", e.Kind, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// classify wraps err once. Errors that already are BuildErrors pass through.
func classify(err error, node string) *BuildError {
	var be *BuildError
	if errors.As(err, &be) {
		return be
	}
	kind := KindUnexpected
	if errors.Is(err, ddd.ErrDescription) {
		kind = KindDescription
	}
	return &BuildError{Kind: kind, Node: node, Err: err}
}
