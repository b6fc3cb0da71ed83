package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerAcquireRelease(t *testing.T) {
	l := NewMemoryLocker()

	ok, err := l.TryAcquire("archive_daily", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.TryAcquire("archive_daily", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	l.Release("archive_daily")

	ok, err = l.TryAcquire("archive_daily", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "acquire after release must succeed")
}

func TestMemoryLockerIndependentNames(t *testing.T) {
	l := NewMemoryLocker()

	ok, _ := l.TryAcquire("a", time.Minute)
	assert.True(t, ok)
	ok, _ = l.TryAcquire("b", time.Minute)
	assert.True(t, ok, "different names must not contend")
}

func TestMemoryLockerTTLExpiry(t *testing.T) {
	l := NewMemoryLocker()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.clock = func() time.Time { return now }

	ok, _ := l.TryAcquire("archive_daily", 5*time.Minute)
	require.True(t, ok)

	now = now.Add(4 * time.Minute)
	ok, _ = l.TryAcquire("archive_daily", 5*time.Minute)
	assert.False(t, ok, "lock still live inside the TTL")

	now = now.Add(2 * time.Minute)
	ok, _ = l.TryAcquire("archive_daily", 5*time.Minute)
	assert.True(t, ok, "expired lock must be reclaimable")
}

func TestFileLockerAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l, err := NewFileLocker(dir)
	require.NoError(t, err)

	ok, err := l.TryAcquire("archive_daily", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	l.Release("archive_daily")

	ok, err = l.TryAcquire("archive_daily", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	l.Release("archive_daily")
}

func TestFileLockerContention(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFileLocker(dir)
	require.NoError(t, err)
	b, err := NewFileLocker(dir)
	require.NoError(t, err)

	ok, err := a.TryAcquire("archive_daily", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.TryAcquire("archive_daily", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second locker on the same file must not acquire")

	a.Release("archive_daily")
	ok, err = b.TryAcquire("archive_daily", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	b.Release("archive_daily")
}
