// Package store persists the server registry, ingested backup jobs,
// compliance history, and sealed archives in a single SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS servers (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	hostname        TEXT    NOT NULL UNIQUE,
	backup_expected INTEGER NOT NULL DEFAULT 1,
	suspended_from  INTEGER,
	suspended_until INTEGER,
	suspend_reason  TEXT    NOT NULL DEFAULT '',
	environment     TEXT    NOT NULL DEFAULT '',
	criticality     TEXT    NOT NULL DEFAULT '',
	application     TEXT    NOT NULL DEFAULT '',
	owner           TEXT    NOT NULL DEFAULT '',
	comment         TEXT    NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL,
	updated_by      TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS backup_jobs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	hostname      TEXT    NOT NULL,
	backup_time   INTEGER NOT NULL,
	job_id        TEXT    NOT NULL DEFAULT '',
	policy_name   TEXT    NOT NULL DEFAULT '',
	schedule_name TEXT    NOT NULL DEFAULT '',
	status        TEXT    NOT NULL DEFAULT '',
	size_gb       REAL    NOT NULL DEFAULT 0,
	duration_min  INTEGER NOT NULL DEFAULT 0,
	media_server  TEXT    NOT NULL DEFAULT '',
	storage_unit  TEXT    NOT NULL DEFAULT '',
	error_message TEXT    NOT NULL DEFAULT '',
	imported_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_backup_time ON backup_jobs(backup_time);
CREATE INDEX IF NOT EXISTS idx_jobs_hostname ON backup_jobs(hostname);

CREATE TABLE IF NOT EXISTS compliance_snapshots (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	computed_at      INTEGER NOT NULL,
	total_servers    INTEGER NOT NULL,
	total_in_scope   INTEGER NOT NULL,
	total_jobs       INTEGER NOT NULL,
	compliant        INTEGER NOT NULL,
	non_compliant    INTEGER NOT NULL,
	unreferenced     INTEGER NOT NULL,
	rate             REAL    NOT NULL,
	compliant_sample TEXT    NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_snapshots_computed_at ON compliance_snapshots(computed_at);

CREATE TABLE IF NOT EXISTS compliance_archives (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	archived_at          INTEGER NOT NULL,
	period_start         INTEGER NOT NULL,
	period_end           INTEGER NOT NULL,
	total_servers        INTEGER NOT NULL,
	total_in_scope       INTEGER NOT NULL,
	total_jobs           INTEGER NOT NULL,
	compliant            INTEGER NOT NULL,
	non_compliant        INTEGER NOT NULL,
	unreferenced         INTEGER NOT NULL,
	rate                 REAL    NOT NULL,
	compliant_hosts      TEXT    NOT NULL DEFAULT '[]',
	non_compliant_hosts  TEXT    NOT NULL DEFAULT '[]',
	unreferenced_hosts   TEXT    NOT NULL DEFAULT '[]',
	mode                 TEXT    NOT NULL DEFAULT 'auto',
	UNIQUE(period_start, period_end)
);

CREATE TABLE IF NOT EXISTS alert_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	alert_type TEXT    NOT NULL,
	severity   TEXT    NOT NULL,
	title      TEXT    NOT NULL,
	message    TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Store wraps the SQLite handle. All methods are safe for concurrent use;
// SQLite serializes writers and WAL keeps readers unblocked.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and applies the schema.
func New(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// unixOrNil converts a nullable column to a *time.Time.
func unixOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

// nilOrUnix converts a *time.Time to its nullable column value.
func nilOrUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
