package store

import (
	"context"
	"database/sql"
	"fmt"

	"modernc.org/sqlite" // Pure-Go SQLite driver.
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteSchema is executed on every open. IF NOT EXISTS keeps it idempotent.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
    id             TEXT PRIMARY KEY,
    project_id     TEXT NOT NULL,
    title          TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'not_started',
    duration_hours REAL,
    scope          TEXT NOT NULL DEFAULT '',
    kind           TEXT NOT NULL DEFAULT '',
    assignee_id    TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE TABLE IF NOT EXISTS edges (
    id             TEXT PRIMARY KEY,
    predecessor_id TEXT NOT NULL,
    successor_id   TEXT NOT NULL,
    dep_type       TEXT NOT NULL DEFAULT 'finish_to_start',
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(predecessor_id, successor_id),
    CHECK(predecessor_id <> successor_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_successor ON edges(successor_id)`,
	`CREATE TABLE IF NOT EXISTS project_locks (
    project_id TEXT PRIMARY KEY,
    version    INTEGER NOT NULL DEFAULT 0
)`,
}

// sqliteLockProject is a write, so the deferred transaction takes the
// database write lock before it reads anything and waits out busy_timeout
// for a competing writer.
const sqliteLockProject = `INSERT INTO project_locks (project_id, version) VALUES (?, 1)
ON CONFLICT(project_id) DO UPDATE SET version = version + 1`

// SQLite is a Store backed by a local SQLite database in WAL mode.
type SQLite struct {
	sqlStore
}

// NewSQLite opens (or creates) a SQLite database at dbPath, enables WAL mode
// and a busy timeout, and creates the schema if needed.
func NewSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	// SQLite supports a single writer. One pooled connection avoids
	// SQLITE_BUSY between connections that each need their own PRAGMAs.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	s := &SQLite{sqlStore{db: db, d: dialect{
		name:              DriverSQLite,
		schema:            sqliteSchema,
		lockProject:       sqliteLockProject,
		isUniqueViolation: isSQLiteUniqueViolation,
		isBusy:            isSQLiteBusy,
	}}}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func isSQLiteUniqueViolation(err error) bool {
	se, ok := errorsAs[*sqlite.Error](err)
	if !ok {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// isSQLiteBusy matches SQLITE_BUSY and SQLITE_LOCKED with any extended code.
func isSQLiteBusy(err error) bool {
	se, ok := errorsAs[*sqlite.Error](err)
	if !ok {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
