// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package cache holds the last generated recommendation set per user with a
// time-to-live. Entries are replaced wholesale; a partially updated set
// would mix two ranking passes and is forbidden. Expiry is judged against
// the set's own ExpiresAt stamp, so the cache and the generated payload can
// never disagree about freshness.
package cache

import (
	"sync"
	"time"

	"github.com/soundhaus/attune/internal/metrics"
	"github.com/soundhaus/attune/internal/recommend"
)

// Stats is a snapshot of cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
	LastSweep time.Time
}

// SetCache is a thread-safe per-user recommendation set cache implementing
// recommend.SetCache. The clock is injectable for tests.
type SetCache struct {
	mu      sync.RWMutex
	entries map[string]*recommend.RecommendationSet

	statsMu sync.Mutex
	stats   Stats

	now func() time.Time
}

// New creates an empty cache. The background sweep is owned by the
// supervisor's janitor service, not started here.
func New() *SetCache {
	return &SetCache{
		entries: make(map[string]*recommend.RecommendationSet),
		now:     time.Now,
	}
}

// SetClock overrides the cache clock. Intended for tests.
func (c *SetCache) SetClock(now func() time.Time) {
	c.now = now
}

// Get returns the user's cached set when present and unexpired. An expired
// entry is evicted and reported as a miss.
func (c *SetCache) Get(userID string) (*recommend.RecommendationSet, bool) {
	c.mu.RLock()
	set, exists := c.entries[userID]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if !c.now().Before(set.ExpiresAt) {
		if c.evictExpired(userID, set) {
			c.recordEviction()
		}
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return set, true
}

// evictExpired removes the entry for userID only if it still is the stale
// pointer the caller read. A concurrent Put may have replaced the entry
// between the read and this call; that replacement is not an eviction and
// must not be counted as one.
func (c *SetCache) evictExpired(userID string, stale *recommend.RecommendationSet) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[userID]; !ok || current != stale {
		return false
	}
	delete(c.entries, userID)
	metrics.CacheEvictions.Inc()
	metrics.CacheEntries.Set(float64(len(c.entries)))
	return true
}

// Put replaces the user's cached set wholesale. The set's ExpiresAt stamp
// is its time-to-live.
func (c *SetCache) Put(userID string, set *recommend.RecommendationSet) {
	c.mu.Lock()
	c.entries[userID] = set
	total := int64(len(c.entries))
	c.mu.Unlock()

	metrics.CacheEntries.Set(float64(total))

	c.statsMu.Lock()
	c.stats.TotalKeys = total
	c.statsMu.Unlock()
}

// Invalidate drops the user's cached set. Safe to call for absent users.
func (c *SetCache) Invalidate(userID string) {
	c.mu.Lock()
	_, existed := c.entries[userID]
	delete(c.entries, userID)
	total := int64(len(c.entries))
	c.mu.Unlock()

	if existed {
		metrics.CacheEvictions.Inc()
		metrics.CacheEntries.Set(float64(total))
		c.recordEviction()
	}
}

// Sweep removes every expired entry and returns the eviction count. Called
// periodically by the janitor service.
func (c *SetCache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	evicted := 0
	for userID, set := range c.entries {
		if !now.Before(set.ExpiresAt) {
			delete(c.entries, userID)
			evicted++
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	metrics.CacheEntries.Set(float64(total))
	if evicted > 0 {
		metrics.CacheEvictions.Add(float64(evicted))
	}

	c.statsMu.Lock()
	c.stats.Evictions += int64(evicted)
	c.stats.TotalKeys = total
	c.stats.LastSweep = now
	c.statsMu.Unlock()

	return evicted
}

// Len returns the current entry count.
func (c *SetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the cache counters.
func (c *SetCache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// HitRate returns the cache hit rate as a percentage.
func (c *SetCache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *SetCache) recordHit() {
	metrics.CacheHits.Inc()
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
}

func (c *SetCache) recordMiss() {
	metrics.CacheMisses.Inc()
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
}

func (c *SetCache) recordEviction() {
	c.statsMu.Lock()
	c.stats.Evictions++
	c.statsMu.Unlock()
}
