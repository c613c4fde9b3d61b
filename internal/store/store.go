// Package store provides the persistence ports the dependency engine reads
// tasks and edges through, plus SQLite, MySQL (Dolt) and in-memory
// implementations. InsertEdge locks the project against every other writer,
// including other processes sharing the database, and hands the freshly
// read graph to the caller's EdgeGuard before the row is written.
package store

import (
	"context"
	"errors"

	"github.com/papapumpkin/critpath/internal/dag"
)

var (
	// ErrEdgeNotFound is returned when deleting an edge ID that does not
	// exist in the project.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrBusy is returned when the database stayed locked by another writer
	// past the busy timeout. The request may be retried.
	ErrBusy = errors.New("store busy, retry later")
)

// Supported drivers for Open.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Reader loads a project's tasks and edges. Durations absent in storage
// are returned as 0.
type Reader interface {
	// LoadTasks returns every task in the project, ordered by ID.
	LoadTasks(ctx context.Context, projectID string) ([]dag.Task, error)

	// LoadEdges returns every edge whose successor belongs to the project.
	LoadEdges(ctx context.Context, projectID string) ([]dag.Edge, error)
}

// EdgeGuard vets a proposed edge against the project graph as read inside
// the write transaction. A non-nil error aborts the insert and is returned
// as is.
type EdgeGuard func(g *dag.Graph) error

// Writer mutates edges.
type Writer interface {
	// InsertEdge stores pred → succ in projectID. The project is locked,
	// re-read and passed to guard before anything is written. A nil guard
	// runs (*dag.Graph).CheckEdge, so a task outside the project yields
	// dag.ErrTaskNotFound and a repeated pair dag.ErrDuplicateEdge.
	InsertEdge(ctx context.Context, projectID, pred, succ string, typ dag.DependencyType, guard EdgeGuard) (dag.Edge, error)

	// DeleteEdge removes edgeID when its successor belongs to projectID and
	// returns ErrEdgeNotFound otherwise.
	DeleteEdge(ctx context.Context, projectID, edgeID string) error
}

// Store is the full persistence collaborator: read and write ports plus
// the bulk replacement used when importing project definitions.
type Store interface {
	Reader
	Writer

	// ReplaceProject atomically replaces all tasks and edges of a project.
	// Edges without an ID are assigned one. A task ID already stored under
	// another project is rejected with dag.ErrDuplicateNode.
	ReplaceProject(ctx context.Context, projectID string, tasks []dag.Task, edges []dag.Edge) error

	// Close releases the underlying resources.
	Close() error
}

// Open returns a Store for the given driver. The DSN is a file path for
// sqlite, a go-sql-driver DSN for mysql, and ignored for memory.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLite(ctx, dsn)
	case DriverMySQL:
		return NewMySQL(ctx, dsn)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, errors.New("store: unknown driver " + driver)
	}
}

// guardOrDefault returns guard, or the plain edge check when guard is nil.
func guardOrDefault(guard EdgeGuard, pred, succ string) EdgeGuard {
	if guard != nil {
		return guard
	}
	return func(g *dag.Graph) error { return g.CheckEdge(pred, succ) }
}
