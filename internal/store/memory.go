package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/papapumpkin/critpath/internal/dag"
)

// Memory is an in-process Store for tests and ephemeral use. It is safe
// for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	tasks map[string]dag.Task
	edges map[string]dag.Edge // by edge ID
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		tasks: make(map[string]dag.Task),
		edges: make(map[string]dag.Edge),
	}
}

// LoadTasks returns the project's tasks ordered by ID.
func (m *Memory) LoadTasks(_ context.Context, projectID string) ([]dag.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projectTasks(projectID), nil
}

// LoadEdges returns edges whose successor belongs to the project.
func (m *Memory) LoadEdges(_ context.Context, projectID string) ([]dag.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projectEdges(projectID), nil
}

func (m *Memory) projectTasks(projectID string) []dag.Task {
	var out []dag.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) projectEdges(projectID string) []dag.Edge {
	var out []dag.Edge
	for _, e := range m.edges {
		if m.inProject(e, projectID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PredecessorID != out[j].PredecessorID {
			return out[i].PredecessorID < out[j].PredecessorID
		}
		return out[i].SuccessorID < out[j].SuccessorID
	})
	return out
}

// inProject reports whether e's successor is stored under projectID.
func (m *Memory) inProject(e dag.Edge, projectID string) bool {
	t, ok := m.tasks[e.SuccessorID]
	return ok && t.ProjectID == projectID
}

// InsertEdge stores pred → succ once guard accepts the current graph.
func (m *Memory) InsertEdge(_ context.Context, projectID, pred, succ string, typ dag.DependencyType, guard EdgeGuard) (dag.Edge, error) {
	guard = guardOrDefault(guard, pred, succ)
	m.mu.Lock()
	defer m.mu.Unlock()

	g, err := dag.Build(m.projectTasks(projectID), m.projectEdges(projectID))
	if err != nil {
		return dag.Edge{}, fmt.Errorf("store: build graph for project %q: %w", projectID, err)
	}
	if err := guard(g); err != nil {
		return dag.Edge{}, err
	}
	e := dag.Edge{ID: uuid.NewString(), PredecessorID: pred, SuccessorID: succ, Type: typ.Normalize()}
	m.edges[e.ID] = e
	return e, nil
}

// DeleteEdge removes the edge with the given ID from the project.
func (m *Memory) DeleteEdge(_ context.Context, projectID, edgeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.edges[edgeID]
	if !ok || !m.inProject(e, projectID) {
		return fmt.Errorf("store: %w: %s in project %s", ErrEdgeNotFound, edgeID, projectID)
	}
	delete(m.edges, edgeID)
	return nil
}

// ReplaceProject swaps the project's tasks and incoming edges. Nothing is
// changed when a task ID belongs to another project.
func (m *Memory) ReplaceProject(_ context.Context, projectID string, tasks []dag.Task, edges []dag.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		if cur, ok := m.tasks[t.ID]; ok && cur.ProjectID != projectID {
			return fmt.Errorf("store: %w: task %s is stored under project %s", dag.ErrDuplicateNode, t.ID, cur.ProjectID)
		}
	}
	for id, e := range m.edges {
		if m.inProject(e, projectID) {
			delete(m.edges, id)
		}
	}
	for id, t := range m.tasks {
		if t.ProjectID == projectID {
			delete(m.tasks, id)
		}
	}
	for _, t := range tasks {
		t.ProjectID = projectID
		if t.Status == "" {
			t.Status = dag.StatusNotStarted
		}
		m.tasks[t.ID] = t
	}
	for _, e := range edges {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.Type = e.Type.Normalize()
		m.edges[e.ID] = e
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
