package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pbonnel/backcheck/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateHostname is returned when a create or update collides with an
// existing registry entry.
var ErrDuplicateHostname = errors.New("hostname already registered")

const serverColumns = `id, hostname, backup_expected, suspended_from, suspended_until,
	suspend_reason, environment, criticality, application, owner, comment,
	created_at, updated_at, updated_by`

func scanServer(row interface{ Scan(...any) error }) (model.ServerEntry, error) {
	var s model.ServerEntry
	var expected int
	var from, until sql.NullInt64
	var created, updated int64
	err := row.Scan(&s.ID, &s.Hostname, &expected, &from, &until,
		&s.SuspendReason, &s.Environment, &s.Criticality, &s.Application,
		&s.Owner, &s.Comment, &created, &updated, &s.UpdatedBy)
	if err != nil {
		return model.ServerEntry{}, err
	}
	s.BackupExpected = expected != 0
	s.SuspendedFrom = unixOrNil(from)
	s.SuspendedUntil = unixOrNil(until)
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.UpdatedAt = time.Unix(updated, 0).UTC()
	return s, nil
}

// CreateServer inserts a registry entry and returns its id.
func (s *Store) CreateServer(e *model.ServerEntry) (int64, error) {
	now := time.Now().Unix()
	res, err := s.db.Exec(`INSERT INTO servers
		(hostname, backup_expected, suspended_from, suspended_until, suspend_reason,
		 environment, criticality, application, owner, comment, created_at, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Hostname, boolInt(e.BackupExpected), nilOrUnix(e.SuspendedFrom), nilOrUnix(e.SuspendedUntil),
		e.SuspendReason, e.Environment, e.Criticality, e.Application, e.Owner, e.Comment,
		now, now, e.UpdatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateHostname
		}
		return 0, fmt.Errorf("inserting server: %w", err)
	}
	return res.LastInsertId()
}

// GetServer returns the entry with the given id, or ErrNotFound.
func (s *Store) GetServer(id int64) (model.ServerEntry, error) {
	row := s.db.QueryRow(`SELECT `+serverColumns+` FROM servers WHERE id = ?`, id)
	e, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ServerEntry{}, ErrNotFound
	}
	if err != nil {
		return model.ServerEntry{}, fmt.Errorf("reading server: %w", err)
	}
	return e, nil
}

// GetServerByHostname returns the entry with the exact stored hostname.
func (s *Store) GetServerByHostname(hostname string) (model.ServerEntry, error) {
	row := s.db.QueryRow(`SELECT `+serverColumns+` FROM servers WHERE hostname = ?`, hostname)
	e, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ServerEntry{}, ErrNotFound
	}
	if err != nil {
		return model.ServerEntry{}, fmt.Errorf("reading server: %w", err)
	}
	return e, nil
}

// ListServers returns the full registry ordered by hostname.
func (s *Store) ListServers() ([]model.ServerEntry, error) {
	rows, err := s.db.Query(`SELECT ` + serverColumns + ` FROM servers ORDER BY hostname`)
	if err != nil {
		return nil, fmt.Errorf("listing servers: %w", err)
	}
	defer rows.Close()

	var out []model.ServerEntry
	for rows.Next() {
		e, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning server: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListActiveExpected returns entries marked backup-expected whose suspension
// window, if any, does not cover the given instant.
func (s *Store) ListActiveExpected(now time.Time) ([]model.ServerEntry, error) {
	rows, err := s.db.Query(`SELECT ` + serverColumns + ` FROM servers WHERE backup_expected = 1 ORDER BY hostname`)
	if err != nil {
		return nil, fmt.Errorf("listing expected servers: %w", err)
	}
	defer rows.Close()

	var out []model.ServerEntry
	for rows.Next() {
		e, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning server: %w", err)
		}
		if e.SuspendedAt(now) {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountServers returns the full registry size, suspended entries included.
func (s *Store) CountServers() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM servers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting servers: %w", err)
	}
	return n, nil
}

// UpdateServer rewrites the mutable fields of an entry.
func (s *Store) UpdateServer(e *model.ServerEntry) error {
	res, err := s.db.Exec(`UPDATE servers SET
		hostname = ?, backup_expected = ?, suspended_from = ?, suspended_until = ?,
		suspend_reason = ?, environment = ?, criticality = ?, application = ?,
		owner = ?, comment = ?, updated_at = ?, updated_by = ?
		WHERE id = ?`,
		e.Hostname, boolInt(e.BackupExpected), nilOrUnix(e.SuspendedFrom), nilOrUnix(e.SuspendedUntil),
		e.SuspendReason, e.Environment, e.Criticality, e.Application,
		e.Owner, e.Comment, time.Now().Unix(), e.UpdatedBy, e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateHostname
		}
		return fmt.Errorf("updating server: %w", err)
	}
	return mustAffect(res)
}

// SuspendServer sets the suspension window [from, until) on an entry.
func (s *Store) SuspendServer(id int64, from, until time.Time, reason, by string) error {
	res, err := s.db.Exec(`UPDATE servers SET
		suspended_from = ?, suspended_until = ?, suspend_reason = ?, updated_at = ?, updated_by = ?
		WHERE id = ?`,
		from.Unix(), until.Unix(), reason, time.Now().Unix(), by, id)
	if err != nil {
		return fmt.Errorf("suspending server: %w", err)
	}
	return mustAffect(res)
}

// ReactivateServer clears any suspension window.
func (s *Store) ReactivateServer(id int64, by string) error {
	res, err := s.db.Exec(`UPDATE servers SET
		suspended_from = NULL, suspended_until = NULL, suspend_reason = '', updated_at = ?, updated_by = ?
		WHERE id = ?`,
		time.Now().Unix(), by, id)
	if err != nil {
		return fmt.Errorf("reactivating server: %w", err)
	}
	return mustAffect(res)
}

// DeleteServer removes an entry from the registry.
func (s *Store) DeleteServer(id int64) error {
	res, err := s.db.Exec(`DELETE FROM servers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting server: %w", err)
	}
	return mustAffect(res)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
