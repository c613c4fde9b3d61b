// Package engine is the calling-layer facade over the dependency graph. It
// loads project snapshots through the store ports, runs the pure analyses
// in dag, cpm and suggest, and runs every edge insert through the store's
// guarded write so two concurrent inserts can never jointly close a cycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/papapumpkin/critpath/internal/cpm"
	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/store"
	"github.com/papapumpkin/critpath/internal/suggest"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	// Logger receives structured logs. Nil uses slog.Default().
	Logger *slog.Logger
	// MaxChainDepth bounds Chain traversals. Zero uses dag.DefaultMaxChainDepth.
	MaxChainDepth int
	// SuggestLimit caps Suggest results. Zero uses suggest.DefaultLimit.
	SuggestLimit int
	// CacheEnabled keeps the last loaded graph per project until a mutation
	// or Invalidate call.
	CacheEnabled bool
	// Telemetry records graph events. Nil disables recording.
	Telemetry *telemetry.Emitter
}

// Engine answers dependency questions for any number of projects. It is
// safe for concurrent use.
type Engine struct {
	store    store.Store
	log      *slog.Logger
	maxDepth int
	limit    int
	cacheOn  bool
	tel      *telemetry.Emitter

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	cacheMu sync.RWMutex
	cache   map[string]*dag.Graph
	gen     map[string]uint64 // bumped by Invalidate
}

// New returns an Engine reading and writing through s.
func New(s store.Store, opts Options) *Engine {
	e := &Engine{
		store:    s,
		log:      opts.Logger,
		maxDepth: opts.MaxChainDepth,
		limit:    opts.SuggestLimit,
		cacheOn:  opts.CacheEnabled,
		tel:      opts.Telemetry,
		locks:    make(map[string]*sync.Mutex),
		cache:    make(map[string]*dag.Graph),
		gen:      make(map[string]uint64),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.maxDepth <= 0 {
		e.maxDepth = dag.DefaultMaxChainDepth
	}
	if e.limit <= 0 {
		e.limit = suggest.DefaultLimit
	}
	return e
}

// projectLock returns the mutex guarding edge mutations of projectID.
func (e *Engine) projectLock(projectID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[projectID] = l
	}
	return l
}

// Snapshot returns the project's graph, served from the cache when enabled.
func (e *Engine) Snapshot(ctx context.Context, projectID string) (*dag.Graph, error) {
	if !e.cacheOn {
		return e.load(ctx, projectID)
	}
	e.cacheMu.RLock()
	g, ok := e.cache[projectID]
	gen := e.gen[projectID]
	e.cacheMu.RUnlock()
	if ok {
		return g, nil
	}
	g, err := e.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	e.cacheMu.Lock()
	// A mutation during the load makes g stale; serve it but do not keep it.
	if e.gen[projectID] == gen {
		e.cache[projectID] = g
	}
	e.cacheMu.Unlock()
	return g, nil
}

// load always reads the store, bypassing the cache.
func (e *Engine) load(ctx context.Context, projectID string) (*dag.Graph, error) {
	tasks, err := e.store.LoadTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("engine: load tasks: %w", err)
	}
	edges, err := e.store.LoadEdges(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("engine: load edges: %w", err)
	}
	g, err := dag.Build(tasks, edges)
	if err != nil {
		return nil, fmt.Errorf("engine: build graph for project %s: %w", projectID, err)
	}
	return g, nil
}

// Invalidate drops the cached snapshot of projectID so the next analysis
// reloads it in full.
func (e *Engine) Invalidate(projectID string) {
	e.cacheMu.Lock()
	delete(e.cache, projectID)
	e.gen[projectID]++
	e.cacheMu.Unlock()
}

// CriticalPath computes the CPM schedule of the project.
func (e *Engine) CriticalPath(ctx context.Context, projectID string) (*cpm.Result, error) {
	g, err := e.Snapshot(ctx, projectID)
	if err != nil {
		return nil, e.fail(ctx, "critical_path", projectID, err)
	}
	res, err := cpm.Compute(g)
	if err != nil {
		return nil, e.fail(ctx, "critical_path", projectID, err)
	}
	e.emit(telemetry.Event{
		Kind:      telemetry.KindCriticalPath,
		ProjectID: projectID,
		Data: map[string]any{
			"total_duration": res.TotalDuration,
			"critical_tasks": len(res.CriticalPath),
			"tasks":          len(res.Tasks),
		},
	})
	e.log.DebugContext(ctx, "critical path computed",
		"project", projectID,
		"tasks", len(res.Tasks),
		"total_duration", res.TotalDuration,
	)
	return res, nil
}

// Chain returns the transitive predecessors and successors of taskID. When
// the depth bound is hit the partial chain is returned together with an
// error wrapping dag.ErrChainTooDeep.
func (e *Engine) Chain(ctx context.Context, projectID, taskID string) (*dag.Chain, error) {
	g, err := e.Snapshot(ctx, projectID)
	if err != nil {
		return nil, e.fail(ctx, "chain", projectID, err)
	}
	ch, err := g.Chain(taskID, e.maxDepth)
	if err != nil {
		if errors.Is(err, dag.ErrChainTooDeep) {
			e.emit(telemetry.Event{
				Kind:      telemetry.KindChainTooDeep,
				ProjectID: projectID,
				TaskID:    taskID,
				Data:      map[string]int{"max_depth": e.maxDepth},
			})
		}
		return ch, e.fail(ctx, "chain", projectID, err, "task", taskID)
	}
	return ch, nil
}

// Available lists tasks whose predecessors are all completed. A non-empty
// assignee restricts the result to that assignee's tasks.
func (e *Engine) Available(ctx context.Context, projectID, assignee string) ([]dag.Task, error) {
	g, err := e.Snapshot(ctx, projectID)
	if err != nil {
		return nil, e.fail(ctx, "available", projectID, err)
	}
	return g.Available(nil, assignee), nil
}

// Blocked lists incomplete tasks waiting on at least one predecessor.
func (e *Engine) Blocked(ctx context.Context, projectID string) ([]dag.BlockedTask, error) {
	g, err := e.Snapshot(ctx, projectID)
	if err != nil {
		return nil, e.fail(ctx, "blocked", projectID, err)
	}
	return g.Blocked(nil), nil
}

// ValidateDependency reports whether pred → succ could be added right now.
// The returned error is reserved for load failures; rule violations are
// described by the Validation.
func (e *Engine) ValidateDependency(ctx context.Context, projectID, pred, succ string) (dag.Validation, error) {
	g, err := e.Snapshot(ctx, projectID)
	if err != nil {
		return dag.Validation{}, e.fail(ctx, "validate_dependency", projectID, err)
	}
	return g.ValidateEdge(pred, succ), nil
}

// AddDependency validates and inserts pred → succ. The cycle check runs
// inside the store's write transaction against the graph as it stands under
// the project lock, so writers in other processes cannot slip an edge in
// between the check and the insert. The in-process project lock only keeps
// this engine's own callers from contending on the database.
func (e *Engine) AddDependency(ctx context.Context, projectID, pred, succ string, typ dag.DependencyType) (dag.Edge, error) {
	l := e.projectLock(projectID)
	l.Lock()
	defer l.Unlock()

	edge, err := e.store.InsertEdge(ctx, projectID, pred, succ, typ, func(g *dag.Graph) error {
		return g.CheckEdge(pred, succ)
	})
	if err != nil {
		if errors.Is(err, dag.ErrCycle) {
			e.emit(telemetry.Event{
				Kind:      telemetry.KindCycleRejected,
				ProjectID: projectID,
				Data:      map[string]string{"predecessor": pred, "successor": succ},
			})
		}
		return dag.Edge{}, e.fail(ctx, "add_dependency", projectID, err,
			"predecessor", pred, "successor", succ)
	}
	e.Invalidate(projectID)

	e.emit(telemetry.Event{
		Kind:      telemetry.KindDependencyAdded,
		ProjectID: projectID,
		EdgeID:    edge.ID,
		Data:      map[string]string{"predecessor": pred, "successor": succ, "type": string(edge.Type)},
	})
	e.log.InfoContext(ctx, "dependency added",
		"project", projectID,
		"edge", edge.ID,
		"predecessor", pred,
		"successor", succ,
	)
	return edge, nil
}

// RemoveDependency deletes the edge with the given ID. An edge whose
// successor belongs to another project is reported as store.ErrEdgeNotFound
// and left in place.
func (e *Engine) RemoveDependency(ctx context.Context, projectID, edgeID string) error {
	l := e.projectLock(projectID)
	l.Lock()
	defer l.Unlock()

	if err := e.store.DeleteEdge(ctx, projectID, edgeID); err != nil {
		return e.fail(ctx, "remove_dependency", projectID, err, "edge", edgeID)
	}
	e.Invalidate(projectID)

	e.emit(telemetry.Event{
		Kind:      telemetry.KindDependencyRemoved,
		ProjectID: projectID,
		EdgeID:    edgeID,
	})
	e.log.InfoContext(ctx, "dependency removed", "project", projectID, "edge", edgeID)
	return nil
}

// Suggest ranks candidate predecessors for taskID.
func (e *Engine) Suggest(ctx context.Context, projectID, taskID string) ([]suggest.Suggestion, error) {
	g, err := e.Snapshot(ctx, projectID)
	if err != nil {
		return nil, e.fail(ctx, "suggest", projectID, err)
	}
	out, err := suggest.Suggest(g, taskID, e.limit)
	if err != nil {
		return nil, e.fail(ctx, "suggest", projectID, err, "task", taskID)
	}
	return out, nil
}

// ImportProject replaces the project's tasks and edges. The records must
// form a valid acyclic graph; nothing is written otherwise.
func (e *Engine) ImportProject(ctx context.Context, projectID string, tasks []dag.Task, edges []dag.Edge) error {
	g, err := dag.Build(tasks, edges)
	if err != nil {
		return e.fail(ctx, "import", projectID, err)
	}
	if _, err := g.TopologicalSort(); err != nil {
		// A cyclic import is bad input, not a fault of a stored graph.
		return e.fail(ctx, "import", projectID, fmt.Errorf("%w in project definition", dag.ErrCycle))
	}

	l := e.projectLock(projectID)
	l.Lock()
	defer l.Unlock()

	if err := e.store.ReplaceProject(ctx, projectID, tasks, edges); err != nil {
		return e.fail(ctx, "import", projectID, err)
	}
	e.Invalidate(projectID)

	e.emit(telemetry.Event{
		Kind:      telemetry.KindProjectImported,
		ProjectID: projectID,
		Data:      map[string]int{"tasks": len(tasks), "edges": len(edges)},
	})
	e.log.InfoContext(ctx, "project imported",
		"project", projectID,
		"tasks", len(tasks),
		"edges", len(edges),
	)
	return nil
}

// fail logs err at the level its severity calls for, records invariant
// faults, and wraps it with the operation name.
func (e *Engine) fail(ctx context.Context, op, projectID string, err error, attrs ...any) error {
	sev := Classify(err)
	args := append([]any{"op", op, "project", projectID, "severity", sev.String(), "error", err}, attrs...)
	switch sev {
	case SeverityExpected:
		e.log.InfoContext(ctx, "request rejected", args...)
	case SeverityIntegrity:
		e.log.WarnContext(ctx, "referential integrity problem", args...)
	case SeverityWarn:
		e.log.WarnContext(ctx, "dependency chain truncated", args...)
	default:
		e.log.ErrorContext(ctx, "dependency engine fault", args...)
	}
	if sev == SeverityFault && errors.Is(err, dag.ErrInvariant) {
		e.emit(telemetry.Event{
			Kind:      telemetry.KindInvariantFault,
			ProjectID: projectID,
			Data:      map[string]string{"op": op, "error": err.Error()},
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (e *Engine) emit(evt telemetry.Event) {
	if err := e.tel.Emit(evt); err != nil {
		e.log.Warn("telemetry emit failed", "kind", evt.Kind, "error", err)
	}
}
