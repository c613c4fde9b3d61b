// Package dag provides the in-memory dependency graph for a project's tasks.
// It supports cycle-safe edge validation, topological ordering, transitive
// chain queries, and availability classification. A Graph is built once
// from persisted records and is never mutated afterwards, so it can be
// shared freely between concurrent readers.
package dag

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sentinel errors for graph construction and analysis.
var (
	// ErrValidation is the parent of every request-level validation failure
	// (self loops, malformed durations, empty identifiers).
	ErrValidation = errors.New("validation failed")

	// ErrSelfLoop is returned when an edge points from a task to itself.
	// It wraps ErrValidation.
	ErrSelfLoop = fmt.Errorf("%w: self-referencing edge", ErrValidation)

	// ErrCycle is returned when a proposed edge would close a loop.
	ErrCycle = errors.New("would create a circular dependency")

	// ErrTaskNotFound is returned when an operation references a task that is
	// not part of the graph.
	ErrTaskNotFound = errors.New("task not found")

	// ErrDanglingEdge is returned by Build when an edge references a task
	// outside the supplied task set.
	ErrDanglingEdge = errors.New("dangling edge")

	// ErrDuplicateEdge is returned when an edge between the same ordered pair
	// of tasks already exists.
	ErrDuplicateEdge = errors.New("dependency already exists")

	// ErrDuplicateNode is returned when two tasks share an ID.
	ErrDuplicateNode = errors.New("duplicate task")

	// ErrChainTooDeep is returned by Chain when a traversal reaches the depth
	// bound with unvisited nodes left. The upstream DAG invariant may have
	// been violated.
	ErrChainTooDeep = errors.New("dependency chain too deep")

	// ErrInvariant marks internal faults: leftover nodes after a topological
	// sort or negative slack. These are never recoverable by retrying.
	ErrInvariant = errors.New("graph invariant violated")
)

// Status is the lifecycle label of a task. The label set is owned by the
// task store; labels other than the constants below are treated as
// incomplete work.
type Status string

// Known task statuses.
const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further work is expected on a task with this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DependencyType tags an edge. Only finish-to-start is modeled by the
// critical path math; the others are carried through as labels.
type DependencyType string

// Known dependency types.
const (
	FinishToStart  DependencyType = "finish_to_start"
	StartToStart   DependencyType = "start_to_start"
	FinishToFinish DependencyType = "finish_to_finish"
	StartToFinish  DependencyType = "start_to_finish"
)

// Normalize returns FinishToStart for the empty type and t otherwise.
func (t DependencyType) Normalize() DependencyType {
	if t == "" {
		return FinishToStart
	}
	return t
}

// Task is a read-only work item as supplied by the task store.
type Task struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Status        Status  `json:"status"`
	DurationHours float64 `json:"duration_hours"`
	ProjectID     string  `json:"project_id"`
	Scope         string  `json:"scope,omitempty"` // sub-scope such as a milestone
	Kind          string  `json:"kind,omitempty"`  // task type, e.g. "design"
	AssigneeID    string  `json:"assignee_id,omitempty"`
}

// Edge is a precedence relation: PredecessorID must finish before
// SuccessorID can start.
type Edge struct {
	ID            string         `json:"id,omitempty"`
	PredecessorID string         `json:"predecessor_id"`
	SuccessorID   string         `json:"successor_id"`
	Type          DependencyType `json:"type"`
}

type pair struct{ pred, succ string }

// Graph is an immutable adjacency view over a project's tasks and edges.
type Graph struct {
	tasks map[string]Task
	ids   []string // sorted task IDs
	// successors maps taskID → sorted IDs of tasks that depend on it.
	successors map[string][]string
	// predecessors maps taskID → sorted IDs of tasks it depends on.
	predecessors map[string][]string
	edges        map[pair]Edge
}

// Build constructs a Graph from flat task and edge records. Durations must
// already be defaulted (absent → 0) by the loader; negative or non-finite
// durations are rejected with ErrValidation.
func Build(tasks []Task, edges []Edge) (*Graph, error) {
	g := &Graph{
		tasks:        make(map[string]Task, len(tasks)),
		ids:          make([]string, 0, len(tasks)),
		successors:   make(map[string][]string, len(tasks)),
		predecessors: make(map[string][]string, len(tasks)),
		edges:        make(map[pair]Edge, len(edges)),
	}

	for _, t := range tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: task with empty id", ErrValidation)
		}
		if _, exists := g.tasks[t.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, t.ID)
		}
		if t.DurationHours < 0 || math.IsNaN(t.DurationHours) || math.IsInf(t.DurationHours, 0) {
			return nil, fmt.Errorf("%w: task %s has invalid duration %v", ErrValidation, t.ID, t.DurationHours)
		}
		g.tasks[t.ID] = t
		g.ids = append(g.ids, t.ID)
	}
	sort.Strings(g.ids)

	for _, e := range edges {
		if e.PredecessorID == e.SuccessorID {
			return nil, fmt.Errorf("%w: %s", ErrSelfLoop, e.PredecessorID)
		}
		if _, ok := g.tasks[e.PredecessorID]; !ok {
			return nil, fmt.Errorf("%w: %s → %s references unknown predecessor %s",
				ErrDanglingEdge, e.PredecessorID, e.SuccessorID, e.PredecessorID)
		}
		if _, ok := g.tasks[e.SuccessorID]; !ok {
			return nil, fmt.Errorf("%w: %s → %s references unknown successor %s",
				ErrDanglingEdge, e.PredecessorID, e.SuccessorID, e.SuccessorID)
		}
		key := pair{e.PredecessorID, e.SuccessorID}
		if _, exists := g.edges[key]; exists {
			return nil, fmt.Errorf("%w: %s → %s", ErrDuplicateEdge, e.PredecessorID, e.SuccessorID)
		}
		e.Type = e.Type.Normalize()
		g.edges[key] = e
		g.successors[e.PredecessorID] = append(g.successors[e.PredecessorID], e.SuccessorID)
		g.predecessors[e.SuccessorID] = append(g.predecessors[e.SuccessorID], e.PredecessorID)
	}

	// Sort adjacency lists for deterministic traversal.
	for _, ids := range g.successors {
		sort.Strings(ids)
	}
	for _, ids := range g.predecessors {
		sort.Strings(ids)
	}
	return g, nil
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.tasks)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Has reports whether the graph contains a task with the given ID.
func (g *Graph) Has(id string) bool {
	_, ok := g.tasks[id]
	return ok
}

// Task returns the task with the given ID.
func (g *Graph) Task(id string) (Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// IDs returns all task IDs sorted alphabetically. The returned slice is a copy.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Tasks returns all tasks sorted by ID.
func (g *Graph) Tasks() []Task {
	out := make([]Task, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.tasks[id])
	}
	return out
}

// Successors returns the IDs of tasks that directly depend on id. The
// returned slice must not be modified.
func (g *Graph) Successors(id string) []string {
	return g.successors[id]
}

// Predecessors returns the IDs of tasks id directly depends on. The
// returned slice must not be modified.
func (g *Graph) Predecessors(id string) []string {
	return g.predecessors[id]
}

// Edge returns the edge from pred to succ, if present.
func (g *Graph) Edge(pred, succ string) (Edge, bool) {
	e, ok := g.edges[pair{pred, succ}]
	return e, ok
}

// Edges returns every edge ordered by predecessor then successor ID.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, id := range g.ids {
		for _, succ := range g.successors[id] {
			out = append(out, g.edges[pair{id, succ}])
		}
	}
	return out
}

// Statuses returns the status of every task as loaded with the graph.
func (g *Graph) Statuses() map[string]Status {
	out := make(map[string]Status, len(g.tasks))
	for id, t := range g.tasks {
		out[id] = t.Status
	}
	return out
}

// TopologicalSort returns task IDs so that every predecessor appears before
// its successors, using Kahn's algorithm. Ready tasks are dequeued in
// alphabetical order so the result is deterministic. If some tasks can never
// be dequeued the graph is cyclic and an error wrapping ErrInvariant and
// ErrCycle is returned.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.tasks))
	var queue []string
	for _, id := range g.ids {
		inDegree[id] = len(g.predecessors[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.tasks))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var freed []string
		for _, succ := range g.successors[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				freed = append(freed, succ)
			}
		}
		// successors are already sorted, so freed is too.
		queue = append(queue, freed...)
	}

	if len(order) != len(g.tasks) {
		return nil, fmt.Errorf("%w: %w: %d of %d tasks could be ordered",
			ErrInvariant, ErrCycle, len(order), len(g.tasks))
	}
	return order, nil
}
