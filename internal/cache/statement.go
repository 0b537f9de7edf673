package cache

import (
	"fmt"
	"sync"
	"time"

	"koinochrista/internal/core"
)

// StatementCache caches computed statements under explicit, versioned keys:
// (building, month, version). The version for a month is the count of
// invalidations recorded for that month or any earlier one, so a write dated
// in month M automatically stales the cached results of M and every later
// month. Carried-forward balances depend on earlier months, so invalidation
// must reach forward in time. Stale entries are never returned; they age out of
// the underlying LRU.
type StatementCache struct {
	mu sync.Mutex
	// invalidations[buildingID][monthKey] counts writes recorded for that
	// month.
	invalidations map[int64]map[int]uint64

	lru *LRUCache[*core.Statement]
}

// NewStatementCache creates a statement cache bounded to maxSize entries
// with the given TTL.
func NewStatementCache(maxSize int, ttl time.Duration) *StatementCache {
	return &StatementCache{
		invalidations: make(map[int64]map[int]uint64),
		lru:           NewLRUCache[*core.Statement](maxSize, ttl),
	}
}

// Get returns the cached statement for (building, month) at the current
// version, if present.
func (c *StatementCache) Get(buildingID int64, m core.Month) (*core.Statement, bool) {
	return c.lru.Get(c.key(buildingID, m))
}

// Set stores a freshly computed statement under the current version.
func (c *StatementCache) Set(buildingID int64, m core.Month, st *core.Statement) {
	c.lru.Set(c.key(buildingID, m), st)
}

// Invalidate records a write dated in month m for the building. Cached
// statements for m and every later month become unreachable because their
// version component changes.
func (c *StatementCache) Invalidate(buildingID int64, m core.Month) {
	c.mu.Lock()
	defer c.mu.Unlock()
	months, ok := c.invalidations[buildingID]
	if !ok {
		months = make(map[int]uint64)
		c.invalidations[buildingID] = months
	}
	months[m.Key()]++
}

// CleanExpired implements the Cleaner interface for the cache manager.
func (c *StatementCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

// version is the sum of invalidation counts over months up to and including
// m: any earlier-month write changes the version of every later month.
func (c *StatementCache) version(buildingID int64, m core.Month) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var v uint64
	for monthKey, count := range c.invalidations[buildingID] {
		if monthKey <= m.Key() {
			v += count
		}
	}
	return v
}

func (c *StatementCache) key(buildingID int64, m core.Month) string {
	return fmt.Sprintf("%d:%s:v%d", buildingID, m, c.version(buildingID, m))
}
