package compliance

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pbonnel/backcheck/internal/model"
)

// ArchiveSink persists sealed-period archives.
type ArchiveSink interface {
	// FindArchive returns the archive covering exactly [start, end], or nil
	// when none exists.
	FindArchive(start, end time.Time) (*model.ComplianceArchive, error)
	CreateArchive(a *model.ComplianceArchive) (int64, error)
}

// Locker serializes archival across processes. TryAcquire returns false when
// another holder owns the lock; an error means the lock backend itself is
// unavailable.
type Locker interface {
	TryAcquire(name string, ttl time.Duration) (bool, error)
	Release(name string)
}

const (
	archiveLockName = "archive_daily"
	archiveLockTTL  = 5 * time.Minute

	// periodFormat renders archive bounds for logs and API responses.
	periodFormat = "02/01/2006 15:04"
)

// Archiver seals 24-hour reporting periods into immutable archives. Scheduled
// runs are idempotent per period; forced runs always write.
type Archiver struct {
	registry Registry
	jobs     JobSource
	archives ArchiveSink
	locker   Locker
	hour     int
	minute   int
	strict   bool
}

// NewArchiver builds an archiver anchored at the daily hh:mm archive instant.
// When strict is true a failing lock backend aborts the run instead of
// degrading to an unprotected pass.
func NewArchiver(registry Registry, jobs JobSource, archives ArchiveSink, locker Locker, hour, minute int, strict bool) *Archiver {
	return &Archiver{
		registry: registry,
		jobs:     jobs,
		archives: archives,
		locker:   locker,
		hour:     hour,
		minute:   minute,
		strict:   strict,
	}
}

// Archive seals one reporting period.
//
// forceNow seals [now-24h, now] unconditionally. Otherwise the period ends at
// the most recently passed daily archive instant and the run is skipped when
// that period is already archived, so repeated invocations are safe.
func (a *Archiver) Archive(forceNow bool, now time.Time) model.ArchiveOutcome {
	acquired, err := a.locker.TryAcquire(archiveLockName, archiveLockTTL)
	if err != nil {
		if a.strict {
			slog.Error("archive: lock backend unavailable", "error", err)
			return model.ArchiveOutcome{Err: fmt.Sprintf("acquiring archive lock: %v", err)}
		}
		slog.Warn("archive: lock backend unavailable, proceeding unprotected", "error", err)
		acquired = true
	} else if !acquired {
		slog.Info("archive: lock held elsewhere, skipping")
		return model.ArchiveOutcome{Skipped: true, SkipReason: "lock held by another process"}
	}
	defer a.locker.Release(archiveLockName)

	start, end := a.period(forceNow, now)
	period := fmt.Sprintf("%s -> %s", start.Format(periodFormat), end.Format(periodFormat))

	if !forceNow {
		existing, err := a.archives.FindArchive(start, end)
		if err != nil {
			slog.Error("archive: checking existing archive", "error", err)
			return model.ArchiveOutcome{Err: err.Error(), Period: period}
		}
		if existing != nil {
			slog.Info("archive: period already sealed", "period", period, "archive_id", existing.ID)
			return model.ArchiveOutcome{
				Skipped:    true,
				SkipReason: "period already archived",
				ArchiveID:  existing.ID,
				Rate:       existing.Rate,
				Period:     period,
			}
		}
	}

	arch, err := a.seal(start, end, forceNow, now)
	if err != nil {
		slog.Error("archive: sealing period", "period", period, "error", err)
		return model.ArchiveOutcome{Err: err.Error(), Period: period}
	}

	id, err := a.archives.CreateArchive(arch)
	if err != nil {
		slog.Error("archive: writing archive", "period", period, "error", err)
		return model.ArchiveOutcome{Err: err.Error(), Period: period}
	}

	slog.Info("archive created",
		"archive_id", id,
		"period", period,
		"rate", arch.Rate,
		"mode", arch.Mode,
	)
	return model.ArchiveOutcome{
		Created:   true,
		ArchiveID: id,
		Rate:      arch.Rate,
		Period:    period,
	}
}

// period returns the sealed window bounds. A forced run ends now; a scheduled
// run ends at the configured hh:mm instant that most recently passed, which is
// yesterday's when now is still before today's.
func (a *Archiver) period(forceNow bool, now time.Time) (start, end time.Time) {
	if forceNow {
		return now.Add(-24 * time.Hour), now
	}
	end = time.Date(now.Year(), now.Month(), now.Day(), a.hour, a.minute, 0, 0, now.Location())
	if now.Before(end) {
		end = end.AddDate(0, 0, -1)
	}
	return end.Add(-24 * time.Hour), end
}

// seal classifies the registry against valid jobs inside the closed window
// [start, end] and builds the immutable archive row.
func (a *Archiver) seal(start, end time.Time, forceNow bool, now time.Time) (*model.ComplianceArchive, error) {
	servers, err := a.registry.ListActiveExpected(end)
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	jobs, err := a.jobs.ListJobsInRange(start, &end)
	if err != nil {
		return nil, fmt.Errorf("reading jobs: %w", err)
	}

	cls := classify(servers, jobs)

	totalServers, err := a.registry.CountServers()
	if err != nil {
		slog.Warn("archive: counting registry", "error", err)
		totalServers = len(servers)
	}

	mode := "auto"
	if forceNow {
		mode = "manual"
	}
	return &model.ComplianceArchive{
		ArchivedAt:        now,
		PeriodStart:       start,
		PeriodEnd:         end,
		TotalServers:      totalServers,
		TotalInScope:      len(servers),
		TotalJobs:         len(jobs),
		Compliant:         len(cls.compliant),
		NonCompliant:      len(cls.nonCompliant),
		Unreferenced:      len(cls.unreferenced),
		Rate:              rateOf(len(cls.compliant), len(servers)),
		CompliantHosts:    cls.compliant,
		NonCompliantHosts: cls.nonCompliant,
		UnreferencedHosts: cls.unreferenced,
		Mode:              mode,
	}, nil
}
