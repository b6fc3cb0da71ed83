package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pbonnel/backcheck/internal/model"
)

const jobColumns = `id, hostname, backup_time, job_id, policy_name, schedule_name,
	status, size_gb, duration_min, media_server, storage_unit, error_message, imported_at`

func scanJob(row interface{ Scan(...any) error }) (model.BackupJob, error) {
	var j model.BackupJob
	var backupTime, importedAt int64
	err := row.Scan(&j.ID, &j.Hostname, &backupTime, &j.JobID, &j.PolicyName,
		&j.ScheduleName, &j.Status, &j.SizeGB, &j.DurationMin,
		&j.MediaServer, &j.StorageUnit, &j.ErrorMessage, &importedAt)
	if err != nil {
		return model.BackupJob{}, err
	}
	j.BackupTime = time.Unix(backupTime, 0).UTC()
	j.ImportedAt = time.Unix(importedAt, 0).UTC()
	return j, nil
}

// InsertJob appends a job record and returns its id.
func (s *Store) InsertJob(j *model.BackupJob) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO backup_jobs
		(hostname, backup_time, job_id, policy_name, schedule_name, status,
		 size_gb, duration_min, media_server, storage_unit, error_message, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.Hostname, j.BackupTime.Unix(), j.JobID, j.PolicyName, j.ScheduleName, j.Status,
		j.SizeGB, j.DurationMin, j.MediaServer, j.StorageUnit, j.ErrorMessage,
		time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("inserting job: %w", err)
	}
	return res.LastInsertId()
}

// UpsertJob inserts a job or updates the record it duplicates. Identity is
// the backup system's job id when present, otherwise the
// hostname/backup-time/policy triple. The returned flag is true on insert.
func (s *Store) UpsertJob(j *model.BackupJob) (bool, error) {
	var existingID int64
	var err error
	if j.JobID != "" {
		err = s.db.QueryRow(`SELECT id FROM backup_jobs WHERE job_id = ?`, j.JobID).Scan(&existingID)
	} else {
		err = s.db.QueryRow(`SELECT id FROM backup_jobs WHERE hostname = ? AND backup_time = ? AND policy_name = ?`,
			j.Hostname, j.BackupTime.Unix(), j.PolicyName).Scan(&existingID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		id, err := s.InsertJob(j)
		if err != nil {
			return false, err
		}
		j.ID = id
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up job: %w", err)
	}

	_, err = s.db.Exec(`UPDATE backup_jobs SET
		hostname = ?, backup_time = ?, job_id = ?, policy_name = ?, schedule_name = ?,
		status = ?, size_gb = ?, duration_min = ?, media_server = ?, storage_unit = ?,
		error_message = ?, imported_at = ?
		WHERE id = ?`,
		j.Hostname, j.BackupTime.Unix(), j.JobID, j.PolicyName, j.ScheduleName,
		j.Status, j.SizeGB, j.DurationMin, j.MediaServer, j.StorageUnit,
		j.ErrorMessage, time.Now().Unix(), existingID)
	if err != nil {
		return false, fmt.Errorf("updating job: %w", err)
	}
	j.ID = existingID
	return false, nil
}

// ListJobsInRange returns jobs with backup_time >= from, bounded above by to
// (inclusive) when non-nil, in insertion order.
func (s *Store) ListJobsInRange(from time.Time, to *time.Time) ([]model.BackupJob, error) {
	var rows *sql.Rows
	var err error
	if to != nil {
		rows, err = s.db.Query(`SELECT `+jobColumns+` FROM backup_jobs
			WHERE backup_time >= ? AND backup_time <= ? ORDER BY id`, from.Unix(), to.Unix())
	} else {
		rows, err = s.db.Query(`SELECT `+jobColumns+` FROM backup_jobs
			WHERE backup_time >= ? ORDER BY id`, from.Unix())
	}
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var out []model.BackupJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// CountJobs returns the total number of stored job records.
func (s *Store) CountJobs() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM backup_jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return n, nil
}

// PruneJobs deletes job records older than the cutoff and returns how many
// were removed.
func (s *Store) PruneJobs(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM backup_jobs WHERE backup_time < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning jobs: %w", err)
	}
	return res.RowsAffected()
}
