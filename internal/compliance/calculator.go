package compliance

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/pbonnel/backcheck/internal/model"
)

// Registry reads the server registry.
type Registry interface {
	// ListActiveExpected returns entries marked backup-expected that are
	// not suspended at the given instant.
	ListActiveExpected(now time.Time) ([]model.ServerEntry, error)
	// CountServers returns the full registry size, suspended or not.
	CountServers() (int, error)
}

// JobSource reads backup-job records. A nil upper bound means a rolling
// window open toward the future.
type JobSource interface {
	ListJobsInRange(from time.Time, to *time.Time) ([]model.BackupJob, error)
}

// SnapshotSink persists calculation snapshots. Append-only.
type SnapshotSink interface {
	RecordSnapshot(model.ComplianceSnapshot) error
}

// DefaultPeriodHours is the rolling evaluation window used by Compute.
const DefaultPeriodHours = 24

// snapshotSampleSize bounds the compliant-host sample stored per snapshot.
const snapshotSampleSize = 50

// Calculator joins the registry against valid jobs via normalized hostname
// and classifies every in-scope server.
type Calculator struct {
	registry    Registry
	jobs        JobSource
	snapshots   SnapshotSink
	periodHours int
}

// NewCalculator builds a calculator. periodHours <= 0 falls back to
// DefaultPeriodHours.
func NewCalculator(registry Registry, jobs JobSource, snapshots SnapshotSink, periodHours int) *Calculator {
	if periodHours <= 0 {
		periodHours = DefaultPeriodHours
	}
	return &Calculator{
		registry:    registry,
		jobs:        jobs,
		snapshots:   snapshots,
		periodHours: periodHours,
	}
}

// Compute classifies every in-scope server against valid jobs observed in
// the rolling window [now-period, ∞) and returns counts, the rate, and the
// three sorted hostname lists.
//
// Compute is not read-only: every successful run appends a snapshot to the
// history. Storage errors while reading degrade to a zero-valued result
// with Err set so dashboards keep rendering; callers must check Err.
func (c *Calculator) Compute(now time.Time) model.ComplianceResult {
	cutoff := now.Add(-time.Duration(c.periodHours) * time.Hour)

	servers, err := c.registry.ListActiveExpected(now)
	if err != nil {
		slog.Error("compliance: reading registry", "error", err)
		return errorResult(now, err)
	}

	jobs, err := c.jobs.ListJobsInRange(cutoff, nil)
	if err != nil {
		slog.Error("compliance: reading jobs", "error", err)
		return errorResult(now, err)
	}

	cls := classify(servers, jobs)

	totalServers, err := c.registry.CountServers()
	if err != nil {
		// The classification itself succeeded; the registry total is
		// informational only.
		slog.Warn("compliance: counting registry", "error", err)
		totalServers = len(servers)
	}

	rate := rateOf(len(cls.compliant), len(servers))

	snap := model.ComplianceSnapshot{
		ComputedAt:      now,
		TotalServers:    totalServers,
		TotalInScope:    len(servers),
		TotalJobs:       len(jobs),
		Compliant:       len(cls.compliant),
		NonCompliant:    len(cls.nonCompliant),
		Unreferenced:    len(cls.unreferenced),
		Rate:            rate,
		CompliantSample: sample(cls.compliant, snapshotSampleSize),
	}
	if err := c.snapshots.RecordSnapshot(snap); err != nil {
		slog.Error("compliance: recording snapshot", "error", err)
	}

	slog.Info("compliance computed",
		"rate", rate,
		"compliant", len(cls.compliant),
		"in_scope", len(servers),
		"jobs", len(jobs),
	)

	return model.ComplianceResult{
		ComputedAt:   now,
		TotalServers: totalServers,
		TotalInScope: len(servers),
		TotalJobs:    len(jobs),
		Rate:         rate,
		Compliant:    cls.compliant,
		NonCompliant: cls.nonCompliant,
		Unreferenced: cls.unreferenced,
	}
}

// PeriodHours returns the configured rolling window length.
func (c *Calculator) PeriodHours() int { return c.periodHours }

// classification holds the three hostname lists, each sorted alphabetically.
type classification struct {
	compliant    []string
	nonCompliant []string
	unreferenced []string
}

// classify performs the two-key join: jobs are filtered by validity and
// grouped by normalized hostname, then every server lands in exactly one of
// compliant/non-compliant, and every observed group without a registry match
// contributes one unreferenced representative.
func classify(servers []model.ServerEntry, jobs []model.BackupJob) classification {
	// First valid job per normalized key, in ingestion order, supplies the
	// representative original-cased hostname for unreferenced reporting.
	observed := make(map[string]string)
	var observedOrder []string
	for _, job := range jobs {
		if !IsValidJob(job) {
			continue
		}
		key := Normalize(job.Hostname)
		if _, ok := observed[key]; !ok {
			observed[key] = job.Hostname
			observedOrder = append(observedOrder, key)
		}
	}

	registered := make(map[string]struct{}, len(servers))
	var cls classification
	for _, s := range servers {
		key := Normalize(s.Hostname)
		registered[key] = struct{}{}
		if _, ok := observed[key]; ok {
			cls.compliant = append(cls.compliant, s.Hostname)
		} else {
			cls.nonCompliant = append(cls.nonCompliant, s.Hostname)
		}
	}

	for _, key := range observedOrder {
		if _, ok := registered[key]; !ok {
			cls.unreferenced = append(cls.unreferenced, observed[key])
		}
	}

	sort.Strings(cls.compliant)
	sort.Strings(cls.nonCompliant)
	sort.Strings(cls.unreferenced)
	return cls
}

// rateOf returns compliant/total*100 rounded to one decimal, and 0 for an
// empty scope (defined edge case, not an error).
func rateOf(compliant, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(compliant)/float64(total)*1000) / 10
}

func sample(hosts []string, n int) []string {
	if len(hosts) <= n {
		return hosts
	}
	return hosts[:n]
}

func errorResult(now time.Time, err error) model.ComplianceResult {
	return model.ComplianceResult{
		ComputedAt:   now,
		Compliant:    []string{},
		NonCompliant: []string{},
		Unreferenced: []string{},
		Err:          err.Error(),
	}
}
