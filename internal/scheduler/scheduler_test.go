package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbonnel/backcheck/internal/config"
	"github.com/pbonnel/backcheck/internal/model"
)

type fakeArchiver struct {
	calls    int
	outcomes []model.ArchiveOutcome
}

func (f *fakeArchiver) Archive(forceNow bool, now time.Time) model.ArchiveOutcome {
	f.calls++
	if len(f.outcomes) > 0 {
		out := f.outcomes[0]
		if len(f.outcomes) > 1 {
			f.outcomes = f.outcomes[1:]
		}
		return out
	}
	return model.ArchiveOutcome{Skipped: true, SkipReason: "period already archived"}
}

type fakeRefresher struct {
	calls int
	res   model.ComplianceResult
}

func (f *fakeRefresher) Refresh(now time.Time) model.ComplianceResult {
	f.calls++
	f.res.ComputedAt = now
	return f.res
}

type fakeEvaluator struct {
	calls int
	last  model.ComplianceResult
}

func (f *fakeEvaluator) Evaluate(_ context.Context, res model.ComplianceResult, _ time.Time) {
	f.calls++
	f.last = res
}

type fakePruner struct {
	jobCutoffs  []time.Time
	snapCutoffs []time.Time
}

func (f *fakePruner) PruneJobs(before time.Time) (int64, error) {
	f.jobCutoffs = append(f.jobCutoffs, before)
	return 0, nil
}

func (f *fakePruner) PruneSnapshots(before time.Time) (int64, error) {
	f.snapCutoffs = append(f.snapCutoffs, before)
	return 0, nil
}

func testScheduler() (*Scheduler, *fakeArchiver, *fakeRefresher, *fakeEvaluator, *fakePruner) {
	cfg := config.Default()
	arch := &fakeArchiver{}
	ref := &fakeRefresher{res: model.ComplianceResult{Rate: 95}}
	ev := &fakeEvaluator{}
	pr := &fakePruner{}
	return New(cfg, arch, ref, ev, pr), arch, ref, ev, pr
}

func TestTickRunsArchiveCheck(t *testing.T) {
	s, arch, _, _, _ := testScheduler()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.tick(context.Background(), now)
	s.tick(context.Background(), now.Add(time.Minute))

	assert.Equal(t, 2, arch.calls, "every tick checks the archive; idempotency is the archiver's job")
}

func TestTickSkipsArchiveWhenDisabled(t *testing.T) {
	s, arch, _, _, _ := testScheduler()
	s.cfg.Archive.Enabled = false

	s.tick(context.Background(), time.Now())

	assert.Zero(t, arch.calls)
}

func TestTickRefreshInterval(t *testing.T) {
	s, _, ref, ev, _ := testScheduler()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.tick(context.Background(), now)
	require.Equal(t, 1, ref.calls, "first tick warms the cache")

	s.tick(context.Background(), now.Add(time.Minute))
	assert.Equal(t, 1, ref.calls, "inside the interval no refresh happens")

	s.tick(context.Background(), now.Add(61*time.Minute))
	assert.Equal(t, 2, ref.calls)
	assert.Equal(t, 2, ev.calls, "every refresh is evaluated for alerts")
	assert.InDelta(t, 95.0, ev.last.Rate, 0.001)
}

func TestTickPrunesDaily(t *testing.T) {
	s, _, _, _, pr := testScheduler()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.tick(context.Background(), now)
	require.Len(t, pr.jobCutoffs, 1)
	assert.Equal(t, now.AddDate(0, 0, -30), pr.jobCutoffs[0])
	assert.Equal(t, now.AddDate(0, 0, -90), pr.snapCutoffs[0])

	s.tick(context.Background(), now.Add(time.Hour))
	assert.Len(t, pr.jobCutoffs, 1, "pruning runs at most daily")

	s.tick(context.Background(), now.Add(25*time.Hour))
	assert.Len(t, pr.jobCutoffs, 2)
}

func TestStatusTracksOutcomes(t *testing.T) {
	s, arch, _, _, _ := testScheduler()
	arch.outcomes = []model.ArchiveOutcome{{Created: true, ArchiveID: 7, Rate: 91.5}}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.tick(context.Background(), now)
	st := s.Status(now)

	assert.True(t, st.ArchiveEnabled)
	require.NotNil(t, st.LastArchive)
	assert.True(t, st.LastArchive.Created)
	assert.Equal(t, int64(7), st.LastArchive.ArchiveID)
	assert.Equal(t, now, st.LastArchiveAt)
	assert.Equal(t, now, st.LastRefreshAt)
}

func TestStatusNextArchiveInstant(t *testing.T) {
	s, _, _, _, _ := testScheduler()

	before := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC), s.Status(before).NextArchiveAt)

	after := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC), s.Status(after).NextArchiveAt)
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _, _, _, _ := testScheduler()
	s.tickInterval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
