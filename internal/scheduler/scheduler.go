// Package scheduler drives the periodic work: archive checks, compliance
// refreshes, alert evaluation, and retention pruning.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pbonnel/backcheck/internal/config"
	"github.com/pbonnel/backcheck/internal/model"
)

// ArchiveRunner seals reporting periods. Satisfied by compliance.Archiver.
type ArchiveRunner interface {
	Archive(forceNow bool, now time.Time) model.ArchiveOutcome
}

// Refresher recomputes the cached compliance result. Satisfied by
// cache.Cache.
type Refresher interface {
	Refresh(now time.Time) model.ComplianceResult
}

// Evaluator inspects a result for alert conditions. Satisfied by
// alerter.Alerter.
type Evaluator interface {
	Evaluate(ctx context.Context, res model.ComplianceResult, now time.Time)
}

// PruneStore removes aged rows. Archives are never touched.
type PruneStore interface {
	PruneJobs(before time.Time) (int64, error)
	PruneSnapshots(before time.Time) (int64, error)
}

// Status is the scheduler state exposed over the API.
type Status struct {
	ArchiveEnabled bool                  `json:"archive_enabled"`
	NextArchiveAt  time.Time             `json:"next_archive_at"`
	LastArchive    *model.ArchiveOutcome `json:"last_archive,omitempty"`
	LastArchiveAt  time.Time             `json:"last_archive_at,omitzero"`
	LastRefreshAt  time.Time             `json:"last_refresh_at,omitzero"`
	LastRefreshErr string                `json:"last_refresh_error,omitempty"`
}

// Scheduler runs the background loop. The archive check fires every minute
// and relies on the archiver's own idempotency, so a missed tick or a
// restart never loses a period and never doubles one.
type Scheduler struct {
	archiver  ArchiveRunner
	refresher Refresher
	evaluator Evaluator
	pruner    PruneStore
	cfg       *config.Config

	tickInterval time.Duration

	mu     sync.Mutex
	status Status

	lastRefresh time.Time
	lastPrune   time.Time
}

func New(cfg *config.Config, archiver ArchiveRunner, refresher Refresher, evaluator Evaluator, pruner PruneStore) *Scheduler {
	return &Scheduler{
		archiver:     archiver,
		refresher:    refresher,
		evaluator:    evaluator,
		pruner:       pruner,
		cfg:          cfg,
		tickInterval: time.Minute,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started",
		"archive_enabled", s.cfg.Archive.Enabled,
		"archive_at", time.Date(0, 1, 1, s.cfg.Archive.Hour, s.cfg.Archive.Minute, 0, 0, time.UTC).Format("15:04"),
		"refresh_interval", s.cfg.Compute.Interval.Std())

	// Warm the cache so the first dashboard request is served instantly.
	s.tick(ctx, time.Now())

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return ctx.Err()
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	if s.cfg.Archive.Enabled {
		outcome := s.archiver.Archive(false, now)
		s.mu.Lock()
		s.status.LastArchive = &outcome
		s.status.LastArchiveAt = now
		s.mu.Unlock()
	}

	if s.lastRefresh.IsZero() || now.Sub(s.lastRefresh) >= s.cfg.Compute.Interval.Std() {
		s.lastRefresh = now
		res := s.refresher.Refresh(now)
		s.mu.Lock()
		s.status.LastRefreshAt = now
		s.status.LastRefreshErr = res.Err
		s.mu.Unlock()
		if s.evaluator != nil {
			s.evaluator.Evaluate(ctx, res, now)
		}
	}

	if s.lastPrune.IsZero() || now.Sub(s.lastPrune) >= 24*time.Hour {
		s.lastPrune = now
		s.prune(now)
	}
}

func (s *Scheduler) prune(now time.Time) {
	jobs, err := s.pruner.PruneJobs(now.AddDate(0, 0, -s.cfg.Retention.JobsDays))
	if err != nil {
		slog.Error("scheduler: pruning jobs", "error", err)
	}
	snaps, err := s.pruner.PruneSnapshots(now.AddDate(0, 0, -s.cfg.Retention.SnapshotsDays))
	if err != nil {
		slog.Error("scheduler: pruning snapshots", "error", err)
	}
	if jobs > 0 || snaps > 0 {
		slog.Info("retention prune", "jobs_removed", jobs, "snapshots_removed", snaps)
	}
}

// Status returns a copy of the current scheduler state.
func (s *Scheduler) Status(now time.Time) Status {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()

	st.ArchiveEnabled = s.cfg.Archive.Enabled
	next := time.Date(now.Year(), now.Month(), now.Day(),
		s.cfg.Archive.Hour, s.cfg.Archive.Minute, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	st.NextArchiveAt = next
	return st
}
