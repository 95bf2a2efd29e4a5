// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package services

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// ValueLogGC matches the BadgerDB garbage collection entry point.
// Satisfied by *badger.DB.
type ValueLogGC interface {
	RunValueLogGC(discardRatio float64) error
}

// BadgerGCService periodically reclaims space in the BadgerDB value log.
// Badger never garbage collects on its own; without this loop the value
// log grows without bound.
type BadgerGCService struct {
	db       ValueLogGC
	interval time.Duration
	logger   zerolog.Logger
}

// NewBadgerGCService builds the GC loop. A non-positive interval falls
// back to ten minutes.
func NewBadgerGCService(db ValueLogGC, interval time.Duration, logger zerolog.Logger) *BadgerGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &BadgerGCService{db: db, interval: interval, logger: logger}
}

// Serve implements suture.Service. Each tick runs GC passes until badger
// reports nothing left to rewrite.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

func (s *BadgerGCService) collect(ctx context.Context) {
	passes := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(0.5)
		if err == nil {
			passes++
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
			s.logger.Warn().Err(err).Msg("badger value log GC failed")
		}
		break
	}
	if passes > 0 {
		s.logger.Debug().Int("passes", passes).Msg("badger value log GC")
	}
}

// String identifies the service in supervisor logs.
func (s *BadgerGCService) String() string {
	return "badger-gc"
}
