package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pbonnel/backcheck/internal/model"
)

func countingCompute(calls *int, rate float64) ComputeFunc {
	return func(now time.Time) model.ComplianceResult {
		*calls++
		return model.ComplianceResult{ComputedAt: now, Rate: rate}
	}
}

func TestGetCachesWithinTTL(t *testing.T) {
	calls := 0
	c := New(countingCompute(&calls, 95), time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := c.Get(now)
	second := c.Get(now.Add(30 * time.Second))

	assert.Equal(t, 1, calls, "second read inside the TTL must hit the cache")
	assert.Equal(t, first, second)
}

func TestGetRecomputesAfterTTL(t *testing.T) {
	calls := 0
	c := New(countingCompute(&calls, 95), time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Get(now)
	c.Get(now.Add(61 * time.Second))

	assert.Equal(t, 2, calls)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	calls := 0
	c := New(countingCompute(&calls, 95), time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Get(now)
	c.Invalidate()
	c.Get(now.Add(time.Second))

	assert.Equal(t, 2, calls)
}

func TestRefreshBypassesTTL(t *testing.T) {
	calls := 0
	c := New(countingCompute(&calls, 95), time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Get(now)
	res := c.Refresh(now.Add(time.Second))

	assert.Equal(t, 2, calls)
	assert.InDelta(t, 95.0, res.Rate, 0.001)
}

func TestErrorResultsNotCached(t *testing.T) {
	calls := 0
	c := New(func(now time.Time) model.ComplianceResult {
		calls++
		if calls == 1 {
			return model.ComplianceResult{ComputedAt: now, Err: "db locked"}
		}
		return model.ComplianceResult{ComputedAt: now, Rate: 88}
	}, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := c.Get(now)
	assert.NotEmpty(t, first.Err)

	second := c.Get(now.Add(time.Second))
	assert.Empty(t, second.Err, "a failed computation must not poison the cache")
	assert.Equal(t, 2, calls)
}
