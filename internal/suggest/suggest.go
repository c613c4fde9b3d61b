// Package suggest ranks plausible new predecessors for a task using simple
// similarity heuristics. It is a best-effort surface: an empty result is a
// normal outcome, never an error.
package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/papapumpkin/critpath/internal/dag"
)

// DefaultLimit caps the number of suggestions when the caller passes a
// non-positive limit.
const DefaultLimit = 5

// Heuristic weights.
const (
	scoreSameScope    = 3
	scoreKindSequence = 2
	scoreSameAssignee = 1
)

// kindSequence is the canonical order in which task kinds usually follow
// one another.
var kindSequence = []string{"requirement", "design", "coding", "testing", "documentation"}

// kindRank maps a normalised kind to its position in kindSequence.
var kindRank = func() map[string]int {
	m := make(map[string]int, len(kindSequence))
	for i, k := range kindSequence {
		m[k] = i
	}
	return m
}()

// Suggestion is one candidate predecessor.
type Suggestion struct {
	Task    dag.Task `json:"task"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Reason joins the fired heuristics into one sentence.
func (s Suggestion) Reason() string {
	return strings.Join(s.Reasons, "; ")
}

// Suggest proposes up to limit predecessors for taskID from the same
// project. Tasks already related to taskID in either direction, directly
// or transitively, are excluded, which also excludes every candidate whose
// edge would create a cycle. Candidates with no matching heuristic are
// dropped. Results are sorted by descending score with task ID as a stable
// tie-break.
func Suggest(g *dag.Graph, taskID string, limit int) ([]Suggestion, error) {
	target, ok := g.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("suggest: %w: %s", dag.ErrTaskNotFound, taskID)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	related := relatedSet(g, taskID)
	out := []Suggestion{}
	for _, cand := range g.Tasks() {
		if cand.ID == taskID || related[cand.ID] {
			continue
		}
		if cand.ProjectID != target.ProjectID {
			continue
		}
		// The transitive exclusion above already rules out cycles; keep the
		// validator as the single authority on edge safety anyway.
		if g.CheckEdge(cand.ID, taskID) != nil {
			continue
		}
		s := score(target, cand)
		if s.Score == 0 {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Task.ID < out[j].Task.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// relatedSet returns every task transitively connected to id in either
// direction.
func relatedSet(g *dag.Graph, id string) map[string]bool {
	related := make(map[string]bool)
	for _, next := range []func(string) []string{g.Predecessors, g.Successors} {
		queue := []string{id}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, n := range next(cur) {
				if !related[n] && n != id {
					related[n] = true
					queue = append(queue, n)
				}
			}
		}
	}
	return related
}

func score(target, cand dag.Task) Suggestion {
	s := Suggestion{Task: cand, Reasons: []string{}}
	if target.Scope != "" && cand.Scope == target.Scope {
		s.Score += scoreSameScope
		s.Reasons = append(s.Reasons, fmt.Sprintf("same scope %q", cand.Scope))
	}
	if precedesKind(cand.Kind, target.Kind) {
		s.Score += scoreKindSequence
		s.Reasons = append(s.Reasons, fmt.Sprintf("%s usually precedes %s",
			normalizeKind(cand.Kind), normalizeKind(target.Kind)))
	}
	if target.AssigneeID != "" && cand.AssigneeID == target.AssigneeID {
		s.Score += scoreSameAssignee
		s.Reasons = append(s.Reasons, "same assignee")
	}
	return s
}

// precedesKind reports whether kind a sits exactly one step before b in
// the canonical sequence.
func precedesKind(a, b string) bool {
	ra, okA := kindRank[normalizeKind(a)]
	rb, okB := kindRank[normalizeKind(b)]
	return okA && okB && ra+1 == rb
}

func normalizeKind(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
