// Package cache memoizes the compliance calculation so dashboard refreshes
// do not recompute the join on every request.
package cache

import (
	"sync"
	"time"

	"github.com/pbonnel/backcheck/internal/model"
)

// DefaultTTL is how long a computed result stays fresh.
const DefaultTTL = time.Minute

// ComputeFunc produces a fresh compliance result for the given instant.
type ComputeFunc func(now time.Time) model.ComplianceResult

// Cache serves a memoized compliance result, recomputing after the TTL or
// an explicit invalidation. Error results are never cached.
type Cache struct {
	compute ComputeFunc
	ttl     time.Duration

	mu        sync.Mutex
	value     model.ComplianceResult
	refreshed time.Time
	valid     bool
}

// New builds a cache around compute. ttl <= 0 falls back to DefaultTTL.
func New(compute ComputeFunc, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{compute: compute, ttl: ttl}
}

// Get returns the cached result, recomputing when stale. Concurrent callers
// share one computation.
func (c *Cache) Get(now time.Time) model.ComplianceResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && now.Sub(c.refreshed) < c.ttl {
		return c.value
	}

	res := c.compute(now)
	if res.Err == "" {
		c.value = res
		c.refreshed = now
		c.valid = true
	}
	return res
}

// Refresh bypasses the TTL and recomputes immediately.
func (c *Cache) Refresh(now time.Time) model.ComplianceResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.compute(now)
	if res.Err == "" {
		c.value = res
		c.refreshed = now
		c.valid = true
	}
	return res
}

// Invalidate drops the cached value so the next Get recomputes. Called after
// imports and registry changes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}
