package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/papapumpkin/critpath/internal/dag"
)

// dialect captures what differs between the SQL backends. Queries use '?'
// placeholders, which both drivers accept.
type dialect struct {
	name   string
	schema []string
	// lockProject claims the project's row in project_locks. Running it first
	// in a transaction makes that transaction the project's only writer
	// until it ends.
	lockProject string
	// lockedRead is appended to reads made after lockProject.
	lockedRead string
	// isUniqueViolation reports whether err is the driver's typed unique
	// constraint error.
	isUniqueViolation func(error) bool
	// isBusy reports whether err is a lock timeout or deadlock.
	isBusy func(error) bool
}

// sqlStore implements Store over database/sql.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *sqlStore) initSchema(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: %s: create schema: %w", s.d.name, err)
		}
	}
	return nil
}

// wrap annotates err, mapping lock contention onto ErrBusy.
func (s *sqlStore) wrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if s.d.isBusy(err) {
		return fmt.Errorf("store: %s: %w: %v", msg, ErrBusy, err)
	}
	return fmt.Errorf("store: %s: %w", msg, err)
}

// LoadTasks returns the project's tasks ordered by ID.
func (s *sqlStore) LoadTasks(ctx context.Context, projectID string) ([]dag.Task, error) {
	return s.loadTasks(ctx, s.db, projectID, "")
}

func (s *sqlStore) loadTasks(ctx context.Context, q queryer, projectID, suffix string) ([]dag.Task, error) {
	query := `SELECT id, project_id, title, status, duration_hours, scope, kind, assignee_id
		FROM tasks WHERE project_id = ? ORDER BY id` + suffix
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, s.wrap(err, "load tasks %q", projectID)
	}
	defer rows.Close()

	var tasks []dag.Task
	for rows.Next() {
		var (
			t        dag.Task
			status   string
			duration sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &status, &duration, &t.Scope, &t.Kind, &t.AssigneeID); err != nil {
			return nil, fmt.Errorf("store: scan task: %w", err)
		}
		t.Status = dag.Status(status)
		// An unknown estimate is a zero-length task.
		if duration.Valid {
			t.DurationHours = duration.Float64
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate tasks: %w", err)
	}
	return tasks, nil
}

// LoadEdges returns every edge whose successor belongs to the project.
func (s *sqlStore) LoadEdges(ctx context.Context, projectID string) ([]dag.Edge, error) {
	return s.loadEdges(ctx, s.db, projectID, "")
}

func (s *sqlStore) loadEdges(ctx context.Context, q queryer, projectID, suffix string) ([]dag.Edge, error) {
	query := `SELECT e.id, e.predecessor_id, e.successor_id, e.dep_type
		FROM edges e JOIN tasks t ON t.id = e.successor_id
		WHERE t.project_id = ? ORDER BY e.predecessor_id, e.successor_id` + suffix
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, s.wrap(err, "load edges %q", projectID)
	}
	defer rows.Close()

	var edges []dag.Edge
	for rows.Next() {
		var (
			e   dag.Edge
			typ string
		)
		if err := rows.Scan(&e.ID, &e.PredecessorID, &e.SuccessorID, &typ); err != nil {
			return nil, fmt.Errorf("store: scan edge: %w", err)
		}
		e.Type = dag.DependencyType(typ).Normalize()
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate edges: %w", err)
	}
	return edges, nil
}

// beginLocked opens a transaction that holds the project's write lock.
func (s *sqlStore) beginLocked(ctx context.Context, projectID string) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.wrap(err, "begin tx for project %q", projectID)
	}
	if _, err := tx.ExecContext(ctx, s.d.lockProject, projectID); err != nil {
		tx.Rollback() //nolint:errcheck // the lock error is the one to report
		return nil, s.wrap(err, "lock project %q", projectID)
	}
	return tx, nil
}

// InsertEdge stores pred → succ after guard accepts the project graph read
// under the project lock.
func (s *sqlStore) InsertEdge(ctx context.Context, projectID, pred, succ string, typ dag.DependencyType, guard EdgeGuard) (dag.Edge, error) {
	guard = guardOrDefault(guard, pred, succ)
	e := dag.Edge{
		ID:            uuid.NewString(),
		PredecessorID: pred,
		SuccessorID:   succ,
		Type:          typ.Normalize(),
	}

	tx, err := s.beginLocked(ctx, projectID)
	if err != nil {
		return dag.Edge{}, err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	tasks, err := s.loadTasks(ctx, tx, projectID, s.d.lockedRead)
	if err != nil {
		return dag.Edge{}, err
	}
	edges, err := s.loadEdges(ctx, tx, projectID, s.d.lockedRead)
	if err != nil {
		return dag.Edge{}, err
	}
	g, err := dag.Build(tasks, edges)
	if err != nil {
		return dag.Edge{}, fmt.Errorf("store: build graph for project %q: %w", projectID, err)
	}
	if err := guard(g); err != nil {
		return dag.Edge{}, err
	}

	const q = `INSERT INTO edges (id, predecessor_id, successor_id, dep_type) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, e.ID, e.PredecessorID, e.SuccessorID, string(e.Type)); err != nil {
		if s.d.isUniqueViolation(err) {
			return dag.Edge{}, fmt.Errorf("store: %w: %s → %s", dag.ErrDuplicateEdge, pred, succ)
		}
		return dag.Edge{}, s.wrap(err, "insert edge %s → %s", pred, succ)
	}
	if err := tx.Commit(); err != nil {
		return dag.Edge{}, s.wrap(err, "commit edge %s → %s", pred, succ)
	}
	return e, nil
}

// DeleteEdge removes the edge with the given ID from the project.
func (s *sqlStore) DeleteEdge(ctx context.Context, projectID, edgeID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM edges WHERE id = ?
		AND successor_id IN (SELECT id FROM tasks WHERE project_id = ?)`, edgeID, projectID)
	if err != nil {
		return s.wrap(err, "delete edge %q", edgeID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete edge rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: %w: %s in project %s", ErrEdgeNotFound, edgeID, projectID)
	}
	return nil
}

// ReplaceProject deletes the project's tasks and their incoming edges and
// inserts the given records in one transaction under the project lock.
func (s *sqlStore) ReplaceProject(ctx context.Context, projectID string, tasks []dag.Task, edges []dag.Edge) error {
	tx, err := s.beginLocked(ctx, projectID)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM edges WHERE successor_id IN (SELECT id FROM tasks WHERE project_id = ?)", projectID,
	); err != nil {
		return s.wrap(err, "clear edges of %q", projectID)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE project_id = ?", projectID); err != nil {
		return s.wrap(err, "clear tasks of %q", projectID)
	}

	taskStmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks
		(id, project_id, title, status, duration_hours, scope, kind, assignee_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare task insert: %w", err)
	}
	defer taskStmt.Close()

	for _, t := range tasks {
		status := t.Status
		if status == "" {
			status = dag.StatusNotStarted
		}
		if _, err := taskStmt.ExecContext(ctx, t.ID, projectID, t.Title, string(status),
			t.DurationHours, t.Scope, t.Kind, t.AssigneeID); err != nil {
			// This project's rows are gone, so the clash is with another project.
			if s.d.isUniqueViolation(err) {
				return fmt.Errorf("store: %w: task %s is stored under another project", dag.ErrDuplicateNode, t.ID)
			}
			return s.wrap(err, "insert task %q", t.ID)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (id, predecessor_id, successor_id, dep_type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, e := range edges {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if _, err := edgeStmt.ExecContext(ctx, e.ID, e.PredecessorID, e.SuccessorID, string(e.Type.Normalize())); err != nil {
			if s.d.isUniqueViolation(err) {
				return fmt.Errorf("store: %w: %s → %s", dag.ErrDuplicateEdge, e.PredecessorID, e.SuccessorID)
			}
			return s.wrap(err, "insert edge %s → %s", e.PredecessorID, e.SuccessorID)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.wrap(err, "commit project %q", projectID)
	}
	return nil
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// errorsAs is errors.As with a generic target, shared by the dialects.
func errorsAs[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}
