package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pbonnel/backcheck/internal/model"
)

// RecordSnapshot appends one calculator run to the history table.
func (s *Store) RecordSnapshot(snap model.ComplianceSnapshot) error {
	sample, err := json.Marshal(emptyIfNil(snap.CompliantSample))
	if err != nil {
		return fmt.Errorf("encoding sample: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO compliance_snapshots
		(computed_at, total_servers, total_in_scope, total_jobs,
		 compliant, non_compliant, unreferenced, rate, compliant_sample)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ComputedAt.Unix(), snap.TotalServers, snap.TotalInScope, snap.TotalJobs,
		snap.Compliant, snap.NonCompliant, snap.Unreferenced, snap.Rate, string(sample))
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

// ListSnapshotsSince returns snapshots computed at or after the cutoff in
// chronological order. Feeds the trend view.
func (s *Store) ListSnapshotsSince(since time.Time) ([]model.ComplianceSnapshot, error) {
	rows, err := s.db.Query(`SELECT id, computed_at, total_servers, total_in_scope, total_jobs,
		compliant, non_compliant, unreferenced, rate, compliant_sample
		FROM compliance_snapshots WHERE computed_at >= ? ORDER BY computed_at`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.ComplianceSnapshot
	for rows.Next() {
		var snap model.ComplianceSnapshot
		var computed int64
		var sample string
		if err := rows.Scan(&snap.ID, &computed, &snap.TotalServers, &snap.TotalInScope,
			&snap.TotalJobs, &snap.Compliant, &snap.NonCompliant, &snap.Unreferenced,
			&snap.Rate, &sample); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snap.ComputedAt = time.Unix(computed, 0).UTC()
		if err := json.Unmarshal([]byte(sample), &snap.CompliantSample); err != nil {
			return nil, fmt.Errorf("decoding sample: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// PruneSnapshots deletes history entries older than the cutoff. Archives are
// never pruned.
func (s *Store) PruneSnapshots(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM compliance_snapshots WHERE computed_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}

const archiveColumns = `id, archived_at, period_start, period_end, total_servers,
	total_in_scope, total_jobs, compliant, non_compliant, unreferenced, rate,
	compliant_hosts, non_compliant_hosts, unreferenced_hosts, mode`

func scanArchive(row interface{ Scan(...any) error }) (model.ComplianceArchive, error) {
	var a model.ComplianceArchive
	var archived, start, end int64
	var compliant, nonCompliant, unreferenced string
	err := row.Scan(&a.ID, &archived, &start, &end, &a.TotalServers,
		&a.TotalInScope, &a.TotalJobs, &a.Compliant, &a.NonCompliant, &a.Unreferenced,
		&a.Rate, &compliant, &nonCompliant, &unreferenced, &a.Mode)
	if err != nil {
		return model.ComplianceArchive{}, err
	}
	a.ArchivedAt = time.Unix(archived, 0).UTC()
	a.PeriodStart = time.Unix(start, 0).UTC()
	a.PeriodEnd = time.Unix(end, 0).UTC()
	for dst, src := range map[*[]string]string{
		&a.CompliantHosts:    compliant,
		&a.NonCompliantHosts: nonCompliant,
		&a.UnreferencedHosts: unreferenced,
	} {
		if err := json.Unmarshal([]byte(src), dst); err != nil {
			return model.ComplianceArchive{}, fmt.Errorf("decoding host list: %w", err)
		}
	}
	return a, nil
}

// CreateArchive writes a sealed-period record and returns its id.
func (s *Store) CreateArchive(a *model.ComplianceArchive) (int64, error) {
	lists := make([]string, 3)
	for i, hosts := range [][]string{a.CompliantHosts, a.NonCompliantHosts, a.UnreferencedHosts} {
		b, err := json.Marshal(emptyIfNil(hosts))
		if err != nil {
			return 0, fmt.Errorf("encoding host list: %w", err)
		}
		lists[i] = string(b)
	}
	res, err := s.db.Exec(`INSERT INTO compliance_archives
		(archived_at, period_start, period_end, total_servers, total_in_scope, total_jobs,
		 compliant, non_compliant, unreferenced, rate,
		 compliant_hosts, non_compliant_hosts, unreferenced_hosts, mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ArchivedAt.Unix(), a.PeriodStart.Unix(), a.PeriodEnd.Unix(),
		a.TotalServers, a.TotalInScope, a.TotalJobs,
		a.Compliant, a.NonCompliant, a.Unreferenced, a.Rate,
		lists[0], lists[1], lists[2], a.Mode)
	if err != nil {
		return 0, fmt.Errorf("inserting archive: %w", err)
	}
	return res.LastInsertId()
}

// FindArchive returns the archive covering exactly [start, end], or nil.
func (s *Store) FindArchive(start, end time.Time) (*model.ComplianceArchive, error) {
	row := s.db.QueryRow(`SELECT `+archiveColumns+` FROM compliance_archives
		WHERE period_start = ? AND period_end = ?`, start.Unix(), end.Unix())
	a, err := scanArchive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding archive: %w", err)
	}
	return &a, nil
}

// GetArchive returns the archive with the given id, or ErrNotFound.
func (s *Store) GetArchive(id int64) (model.ComplianceArchive, error) {
	row := s.db.QueryRow(`SELECT `+archiveColumns+` FROM compliance_archives WHERE id = ?`, id)
	a, err := scanArchive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ComplianceArchive{}, ErrNotFound
	}
	if err != nil {
		return model.ComplianceArchive{}, fmt.Errorf("reading archive: %w", err)
	}
	return a, nil
}

// ListArchives returns archives newest first, at most limit of them when
// limit is positive.
func (s *Store) ListArchives(limit int) ([]model.ComplianceArchive, error) {
	q := `SELECT ` + archiveColumns + ` FROM compliance_archives ORDER BY period_end DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(q+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(q)
	}
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}
	defer rows.Close()

	var out []model.ComplianceArchive
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning archive: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteArchive removes a sealed record. Operator action only.
func (s *Store) DeleteArchive(id int64) error {
	res, err := s.db.Exec(`DELETE FROM compliance_archives WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting archive: %w", err)
	}
	return mustAffect(res)
}

// InsertAlert appends one fired alert to the audit log.
func (s *Store) InsertAlert(n model.Notification) error {
	_, err := s.db.Exec(`INSERT INTO alert_log (alert_type, severity, title, message, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.AlertType, n.Severity, n.Title, n.Message, n.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
