package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers.
const (
	mysqlDuplicateEntry  = 1062 // ER_DUP_ENTRY
	mysqlLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlLockDeadlock    = 1213 // ER_LOCK_DEADLOCK
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
    id             VARCHAR(191) PRIMARY KEY,
    project_id     VARCHAR(191) NOT NULL,
    title          TEXT NOT NULL,
    status         VARCHAR(64) NOT NULL DEFAULT 'not_started',
    duration_hours DOUBLE NULL,
    scope          VARCHAR(191) NOT NULL DEFAULT '',
    kind           VARCHAR(64) NOT NULL DEFAULT '',
    assignee_id    VARCHAR(191) NOT NULL DEFAULT '',
    INDEX idx_tasks_project (project_id)
)`,
	`CREATE TABLE IF NOT EXISTS edges (
    id             VARCHAR(64) PRIMARY KEY,
    predecessor_id VARCHAR(191) NOT NULL,
    successor_id   VARCHAR(191) NOT NULL,
    dep_type       VARCHAR(64) NOT NULL DEFAULT 'finish_to_start',
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_edges_pair (predecessor_id, successor_id),
    INDEX idx_edges_successor (successor_id)
)`,
	`CREATE TABLE IF NOT EXISTS project_locks (
    project_id VARCHAR(191) PRIMARY KEY,
    version    BIGINT NOT NULL DEFAULT 0
)`,
}

// mysqlLockProject takes an exclusive row lock on the project's lock row
// that is held until commit. Reads after it use FOR UPDATE so they see the
// latest committed rows rather than the transaction's snapshot.
const mysqlLockProject = `INSERT INTO project_locks (project_id, version) VALUES (?, 1)
ON DUPLICATE KEY UPDATE version = version + 1`

// MySQL is a Store backed by a MySQL-compatible server such as Dolt.
type MySQL struct {
	sqlStore
}

// NewMySQL connects to the database at dsn, verifies the connection, and
// creates the schema if needed.
func NewMySQL(ctx context.Context, dsn string) (*MySQL, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("store: mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping mysql: %w", err)
	}

	s := &MySQL{sqlStore{db: db, d: dialect{
		name:              DriverMySQL,
		schema:            mysqlSchema,
		lockProject:       mysqlLockProject,
		lockedRead:        " FOR UPDATE",
		isUniqueViolation: isMySQLUniqueViolation,
		isBusy:            isMySQLBusy,
	}}}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func isMySQLUniqueViolation(err error) bool {
	me, ok := errorsAs[*mysql.MySQLError](err)
	return ok && me.Number == mysqlDuplicateEntry
}

func isMySQLBusy(err error) bool {
	me, ok := errorsAs[*mysql.MySQLError](err)
	return ok && (me.Number == mysqlLockWaitTimeout || me.Number == mysqlLockDeadlock)
}
