package compliance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbonnel/backcheck/internal/model"
)

type fakeArchiveSink struct {
	existing *model.ComplianceArchive
	created  []*model.ComplianceArchive
	findErr  error
	writeErr error
	nextID   int64
}

func (f *fakeArchiveSink) FindArchive(start, end time.Time) (*model.ComplianceArchive, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.existing != nil && f.existing.PeriodStart.Equal(start) && f.existing.PeriodEnd.Equal(end) {
		return f.existing, nil
	}
	return nil, nil
}

func (f *fakeArchiveSink) CreateArchive(a *model.ComplianceArchive) (int64, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.nextID++
	f.created = append(f.created, a)
	return f.nextID, nil
}

type fakeLocker struct {
	acquired bool
	err      error
	releases []string
}

func (f *fakeLocker) TryAcquire(string, time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.acquired, nil
}

func (f *fakeLocker) Release(name string) { f.releases = append(f.releases, name) }

func newTestArchiver(sink *fakeArchiveSink, locker Locker) *Archiver {
	reg := &fakeRegistry{servers: servers("srv-a", "srv-b")}
	jobs := &fakeJobSource{jobs: []model.BackupJob{validJob("srv-a")}}
	return NewArchiver(reg, jobs, sink, locker, 6, 0, false)
}

func TestArchiveForcedWindow(t *testing.T) {
	sink := &fakeArchiveSink{}
	jobs := &fakeJobSource{jobs: []model.BackupJob{validJob("srv-a")}}
	reg := &fakeRegistry{servers: servers("srv-a")}
	a := NewArchiver(reg, jobs, sink, &fakeLocker{acquired: true}, 6, 0, false)
	now := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

	out := a.Archive(true, now)

	require.Empty(t, out.Err)
	assert.True(t, out.Created)
	require.Len(t, sink.created, 1)
	arch := sink.created[0]
	assert.Equal(t, now.Add(-24*time.Hour), arch.PeriodStart)
	assert.Equal(t, now, arch.PeriodEnd)
	assert.Equal(t, "manual", arch.Mode)
	assert.Equal(t, now.Add(-24*time.Hour), jobs.gotFrom)
	require.NotNil(t, jobs.gotTo, "sealed window must have an upper bound")
	assert.Equal(t, now, *jobs.gotTo)
}

func TestArchiveScheduledPeriod(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantEnd time.Time
	}{
		{
			"after today's instant",
			time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
		},
		{
			"before today's instant",
			time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 28, 6, 0, 0, 0, time.UTC),
		},
		{
			"exactly at the instant",
			time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeArchiveSink{}
			out := newTestArchiver(sink, &fakeLocker{acquired: true}).Archive(false, tt.now)

			require.Empty(t, out.Err)
			require.True(t, out.Created)
			require.Len(t, sink.created, 1)
			assert.Equal(t, tt.wantEnd, sink.created[0].PeriodEnd)
			assert.Equal(t, tt.wantEnd.Add(-24*time.Hour), sink.created[0].PeriodStart)
			assert.Equal(t, "auto", sink.created[0].Mode)
		})
	}
}

func TestArchiveScheduledIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	sink := &fakeArchiveSink{existing: &model.ComplianceArchive{
		ID:          42,
		PeriodStart: end.Add(-24 * time.Hour),
		PeriodEnd:   end,
		Rate:        97.5,
	}}

	out := newTestArchiver(sink, &fakeLocker{acquired: true}).Archive(false, now)

	assert.True(t, out.Skipped)
	assert.False(t, out.Created)
	assert.Equal(t, int64(42), out.ArchiveID)
	assert.InDelta(t, 97.5, out.Rate, 0.001)
	assert.Empty(t, sink.created, "an archived period must not be written twice")
}

func TestArchiveForcedBypassesIdempotency(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	sink := &fakeArchiveSink{existing: &model.ComplianceArchive{
		PeriodStart: now.Add(-24 * time.Hour),
		PeriodEnd:   now,
	}}

	out := newTestArchiver(sink, &fakeLocker{acquired: true}).Archive(true, now)

	assert.True(t, out.Created, "forced runs always write")
	assert.Len(t, sink.created, 1)
}

func TestArchiveLockHeld(t *testing.T) {
	sink := &fakeArchiveSink{}
	out := newTestArchiver(sink, &fakeLocker{acquired: false}).Archive(false, time.Now())

	assert.True(t, out.Skipped)
	assert.Contains(t, out.SkipReason, "lock")
	assert.Empty(t, sink.created)
}

func TestArchiveLockBackendDown(t *testing.T) {
	t.Run("degraded mode proceeds", func(t *testing.T) {
		sink := &fakeArchiveSink{}
		locker := &fakeLocker{err: errors.New("backend unreachable")}
		out := newTestArchiver(sink, locker).Archive(false, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

		require.Empty(t, out.Err)
		assert.True(t, out.Created)
	})

	t.Run("strict mode fails closed", func(t *testing.T) {
		sink := &fakeArchiveSink{}
		locker := &fakeLocker{err: errors.New("backend unreachable")}
		reg := &fakeRegistry{servers: servers("srv-a")}
		jobs := &fakeJobSource{}
		a := NewArchiver(reg, jobs, sink, locker, 6, 0, true)

		out := a.Archive(false, time.Now())

		assert.Contains(t, out.Err, "backend unreachable")
		assert.Empty(t, sink.created)
	})
}

func TestArchiveReleasesLock(t *testing.T) {
	locker := &fakeLocker{acquired: true}
	newTestArchiver(&fakeArchiveSink{}, locker).Archive(false, time.Now())

	assert.Equal(t, []string{"archive_daily"}, locker.releases)
}

func TestArchiveReleasesLockOnError(t *testing.T) {
	locker := &fakeLocker{acquired: true}
	sink := &fakeArchiveSink{writeErr: errors.New("disk full")}

	out := newTestArchiver(sink, locker).Archive(false, time.Now())

	assert.Contains(t, out.Err, "disk full")
	assert.Equal(t, []string{"archive_daily"}, locker.releases, "lock must be released on failure")
}

func TestArchiveAppliesValidityFilter(t *testing.T) {
	reg := &fakeRegistry{servers: servers("srv-a")}
	jobs := &fakeJobSource{jobs: []model.BackupJob{
		{Hostname: "srv-a", Status: "2", SizeGB: 50},
	}}
	sink := &fakeArchiveSink{}
	a := NewArchiver(reg, jobs, sink, &fakeLocker{acquired: true}, 6, 0, false)

	out := a.Archive(true, time.Now())

	require.True(t, out.Created)
	arch := sink.created[0]
	assert.Zero(t, arch.Compliant, "failed jobs must not count in archives")
	assert.Equal(t, []string{"srv-a"}, arch.NonCompliantHosts)
}

func TestArchivePeriodString(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := newTestArchiver(&fakeArchiveSink{}, &fakeLocker{acquired: true}).Archive(false, now)

	assert.Equal(t, "28/02/2026 06:00 -> 01/03/2026 06:00", out.Period)
}
