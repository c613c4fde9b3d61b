package engine

import (
	"context"
	"errors"

	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/store"
)

// Severity tells a calling layer how to react to an engine error.
type Severity int

const (
	// SeverityNone is the classification of a nil error.
	SeverityNone Severity = iota
	// SeverityExpected covers rejected requests such as self loops, cycles,
	// duplicates and malformed input, plus cancelled contexts and a store
	// that stayed locked by another writer. Show the reason to the user.
	SeverityExpected
	// SeverityIntegrity covers references to missing tasks or edges.
	SeverityIntegrity
	// SeverityWarn covers truncated analyses that still return a partial
	// result.
	SeverityWarn
	// SeverityFault covers invariant violations and storage failures.
	// Retrying the same request will not help.
	SeverityFault
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityExpected:
		return "expected"
	case SeverityIntegrity:
		return "integrity"
	case SeverityWarn:
		return "warn"
	case SeverityFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Classify maps err onto a Severity. Invariant violations win over any
// other sentinel they wrap.
func Classify(err error) Severity {
	switch {
	case err == nil:
		return SeverityNone
	case errors.Is(err, dag.ErrInvariant):
		return SeverityFault
	case errors.Is(err, dag.ErrChainTooDeep):
		return SeverityWarn
	case errors.Is(err, dag.ErrValidation),
		errors.Is(err, dag.ErrCycle),
		errors.Is(err, dag.ErrDuplicateEdge),
		errors.Is(err, store.ErrBusy),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return SeverityExpected
	case errors.Is(err, dag.ErrTaskNotFound),
		errors.Is(err, dag.ErrDanglingEdge),
		errors.Is(err, dag.ErrDuplicateNode),
		errors.Is(err, store.ErrEdgeNotFound):
		return SeverityIntegrity
	default:
		return SeverityFault
	}
}
