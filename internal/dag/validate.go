package dag

import (
	"errors"
	"fmt"
)

// Validation is the outcome of checking a proposed edge.
type Validation struct {
	Valid  bool   `json:"is_valid"`
	Reason string `json:"reason,omitempty"`
}

// CheckEdge reports whether adding pred → succ keeps the graph acyclic.
// It returns ErrSelfLoop, ErrTaskNotFound, ErrDuplicateEdge, or ErrCycle
// (all wrapped with context) when the edge must be rejected, and nil when
// it is safe to insert.
func (g *Graph) CheckEdge(pred, succ string) error {
	if pred == succ {
		return fmt.Errorf("%w: %s", ErrSelfLoop, pred)
	}
	if !g.Has(pred) {
		return fmt.Errorf("%w: predecessor %s", ErrTaskNotFound, pred)
	}
	if !g.Has(succ) {
		return fmt.Errorf("%w: successor %s", ErrTaskNotFound, succ)
	}
	if _, exists := g.edges[pair{pred, succ}]; exists {
		return fmt.Errorf("%w: %s → %s", ErrDuplicateEdge, pred, succ)
	}
	// pred → succ closes a loop exactly when pred is already reachable
	// from succ.
	if g.Reachable(succ, pred) {
		return fmt.Errorf("%w: %s → %s (%s already depends on %s)", ErrCycle, pred, succ, pred, succ)
	}
	return nil
}

// ValidateEdge is CheckEdge expressed as a Validation value for callers
// that present the result rather than branch on it.
func (g *Graph) ValidateEdge(pred, succ string) Validation {
	err := g.CheckEdge(pred, succ)
	if err == nil {
		return Validation{Valid: true}
	}
	return Validation{Valid: false, Reason: reasonFor(err)}
}

// reasonFor maps a CheckEdge error to a short user-facing sentence.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrSelfLoop):
		return "a task cannot depend on itself"
	case errors.Is(err, ErrCycle):
		return "would create a circular dependency"
	case errors.Is(err, ErrDuplicateEdge):
		return "dependency already exists"
	default:
		return err.Error()
	}
}

// Reachable reports whether dst can be reached from src by following
// successor edges. A task does not reach itself through the empty path.
// The search is iterative and visits every task at most once.
func (g *Graph) Reachable(src, dst string) bool {
	if src == dst {
		return false
	}
	visited := map[string]bool{src: true}
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.successors[cur] {
			if next == dst {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
