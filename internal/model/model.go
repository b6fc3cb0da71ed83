// Package model defines all shared domain types for backcheck.
package model

import "time"

// ServerEntry is one row of the server registry (CMDB). Identity is the
// hostname, compared case-insensitively through normalization.
type ServerEntry struct {
	ID             int64      `json:"id"`
	Hostname       string     `json:"hostname"`
	BackupExpected bool       `json:"backup_expected"`
	SuspendedFrom  *time.Time `json:"suspended_from,omitempty"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	SuspendReason  string     `json:"suspend_reason,omitempty"`
	Environment    string     `json:"environment,omitempty"` // PROD, DEV, TEST, DR
	Criticality    string     `json:"criticality,omitempty"` // CRITICAL, HIGH, MEDIUM, LOW
	Application    string     `json:"application,omitempty"`
	Owner          string     `json:"owner,omitempty"`
	Comment        string     `json:"comment,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	UpdatedBy      string     `json:"updated_by,omitempty"`
}

// SuspendedAt reports whether the entry is inside its temporary suspension
// window at the given instant. The window is half-open: [from, until).
func (s *ServerEntry) SuspendedAt(now time.Time) bool {
	if s.SuspendedFrom == nil || s.SuspendedUntil == nil {
		return false
	}
	return !now.Before(*s.SuspendedFrom) && now.Before(*s.SuspendedUntil)
}

// InScopeAt reports whether the entry counts toward compliance at the given
// instant: marked backup-expected and not currently suspended.
func (s *ServerEntry) InScopeAt(now time.Time) bool {
	return s.BackupExpected && !s.SuspendedAt(now)
}

// BackupJob is one ingested backup-job record. The hostname is stored as
// reported by the backup system; normalization happens only at join time.
type BackupJob struct {
	ID           int64     `json:"id"`
	Hostname     string    `json:"hostname"`
	BackupTime   time.Time `json:"backup_time"`
	JobID        string    `json:"job_id,omitempty"`
	PolicyName   string    `json:"policy_name,omitempty"`
	ScheduleName string    `json:"schedule_name,omitempty"`
	Status       string    `json:"status"`
	SizeGB       float64   `json:"size_gb"`
	DurationMin  int       `json:"duration_min,omitempty"`
	MediaServer  string    `json:"media_server,omitempty"`
	StorageUnit  string    `json:"storage_unit,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ImportedAt   time.Time `json:"imported_at"`
}

// ComplianceSnapshot records one calculator run for the audit trail and the
// trend view. Append-only.
type ComplianceSnapshot struct {
	ID              int64     `json:"id"`
	ComputedAt      time.Time `json:"computed_at"`
	TotalServers    int       `json:"total_servers"` // full registry count
	TotalInScope    int       `json:"total_in_scope"`
	TotalJobs       int       `json:"total_jobs"`
	Compliant       int       `json:"compliant"`
	NonCompliant    int       `json:"non_compliant"`
	Unreferenced    int       `json:"unreferenced"`
	Rate            float64   `json:"rate"`
	CompliantSample []string  `json:"compliant_sample,omitempty"`
}

// ComplianceArchive is the sealed-period record written once per reporting
// period. Immutable after creation except for operator deletion.
type ComplianceArchive struct {
	ID                int64     `json:"id"`
	ArchivedAt        time.Time `json:"archived_at"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
	TotalServers      int       `json:"total_servers"`
	TotalInScope      int       `json:"total_in_scope"`
	TotalJobs         int       `json:"total_jobs"`
	Compliant         int       `json:"compliant"`
	NonCompliant      int       `json:"non_compliant"`
	Unreferenced      int       `json:"unreferenced"`
	Rate              float64   `json:"rate"`
	CompliantHosts    []string  `json:"compliant_hosts"`
	NonCompliantHosts []string  `json:"non_compliant_hosts"`
	UnreferencedHosts []string  `json:"unreferenced_hosts"`
	Mode              string    `json:"mode"` // "auto" or "manual"
}

// ComplianceResult is what Compute returns to callers. When Err is non-empty
// the counts are zero-valued and must not be trusted.
type ComplianceResult struct {
	ComputedAt   time.Time `json:"computed_at"`
	TotalServers int       `json:"total_servers"`
	TotalInScope int       `json:"total_in_scope"`
	TotalJobs    int       `json:"total_jobs"`
	Rate         float64   `json:"rate"`
	Compliant    []string  `json:"compliant"`
	NonCompliant []string  `json:"non_compliant"`
	Unreferenced []string  `json:"unreferenced"`
	Err          string    `json:"error,omitempty"`
}

// ArchiveOutcome is the tagged result of one archival attempt. Exactly one
// of Created, Skipped, or a non-empty Err describes what happened.
type ArchiveOutcome struct {
	Created    bool    `json:"created"`
	Skipped    bool    `json:"skipped"`
	SkipReason string  `json:"skip_reason,omitempty"`
	ArchiveID  int64   `json:"archive_id,omitempty"`
	Rate       float64 `json:"rate,omitempty"`
	Period     string  `json:"period,omitempty"`
	Err        string  `json:"error,omitempty"`
}

// TrendPoint is a single data point of the compliance-rate trend.
type TrendPoint struct {
	Timestamp int64   `json:"ts"`
	Rate      float64 `json:"rate"`
}

// ImportStats summarizes one CSV import run.
type ImportStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Notification represents a structured alert message.
type Notification struct {
	AlertType string            `json:"alert_type"`
	Severity  string            `json:"severity"` // "info", "warning", "critical"
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Subject   string            `json:"subject"`
	Timestamp time.Time         `json:"timestamp"`
	Resolved  bool              `json:"resolved"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
