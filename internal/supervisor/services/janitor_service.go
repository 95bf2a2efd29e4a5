// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper evicts expired entries and reports how many were removed.
// Satisfied by *cache.SetCache.
type Sweeper interface {
	Sweep() int
}

// JanitorService periodically sweeps the recommendation cache. Expired
// sets are already invisible to readers; the janitor only reclaims their
// memory.
type JanitorService struct {
	cache    Sweeper
	interval time.Duration
	logger   zerolog.Logger
}

// NewJanitorService builds the janitor. A non-positive interval falls
// back to fifteen minutes.
func NewJanitorService(cache Sweeper, interval time.Duration, logger zerolog.Logger) *JanitorService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &JanitorService{cache: cache, interval: interval, logger: logger}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if evicted := j.cache.Sweep(); evicted > 0 {
				j.logger.Debug().Int("evicted", evicted).Msg("cache sweep")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (j *JanitorService) String() string {
	return "cache-janitor"
}
