// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

// Package scheduler enforces the refresh budget: a daily manual-refresh
// quota and three fixed auto-refresh windows, tracked per user per local
// calendar day. Day rollover is detected by comparing the stored day-key to
// the current one, so resets survive restarts without a midnight timer.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundhaus/attune/internal/recommend"
)

// refreshWindow is one fixed daily auto-refresh window, [start, end) in
// whole local hours.
type refreshWindow struct {
	name      string
	startHour int
	endHour   int
}

// refreshWindows are the three daily auto-refresh slots. Order matters:
// the index is the quota's one-shot flag index.
var refreshWindows = []refreshWindow{
	{name: "morning", startHour: 8, endHour: 10},
	{name: "noon", startHour: 12, endHour: 14},
	{name: "evening", startHour: 17, endHour: 19},
}

const dayKeyLayout = "2006-01-02"

// Config holds scheduler tuning parameters.
type Config struct {
	// MaxManualPerDay is the daily manual refresh quota. Default: 3
	MaxManualPerDay int

	// Timezone is the IANA name of the local timezone the windows and the
	// day rollover are evaluated in. Empty means the process timezone.
	Timezone string
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{MaxManualPerDay: 3}
}

// Scheduler implements recommend.RefreshGate over a QuotaStore. All
// decisions and mutations for one request happen inside a single atomic
// store update, so concurrent refreshes cannot overshoot the quota.
type Scheduler struct {
	cfg    Config
	store  QuotaStore
	loc    *time.Location
	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// New creates a scheduler.
//
//nolint:gocritic // zerolog passes loggers by value
func New(cfg Config, store QuotaStore, logger zerolog.Logger) (*Scheduler, error) {
	if store == nil {
		return nil, fmt.Errorf("quota store is required")
	}
	if cfg.MaxManualPerDay <= 0 {
		return nil, fmt.Errorf("manual quota must be positive, got %d", cfg.MaxManualPerDay)
	}

	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
	}

	return &Scheduler{
		cfg:    cfg,
		store:  store,
		loc:    loc,
		logger: logger.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}, nil
}

// SetClock overrides the scheduler clock. Intended for tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Authorize grants or denies a refresh request.
//
// Manual refreshes are granted while the daily counter is below the quota;
// a denial carries the deterministic countdown to the next auto window.
// Auto refreshes are granted at most once per window per day and only
// while inside the window; they never consume manual quota.
func (s *Scheduler) Authorize(ctx context.Context, userID string, kind recommend.RefreshKind) error {
	if userID == "" {
		return recommend.ErrUnknownUser
	}

	now := s.now().In(s.loc)
	dayKey := now.Format(dayKeyLayout)

	switch kind {
	case recommend.RefreshManual:
		_, err := s.store.Update(ctx, userID, func(q RefreshQuota) (RefreshQuota, error) {
			q = q.Rollover(dayKey)
			if q.ManualCount >= s.cfg.MaxManualPerDay {
				return q, &recommend.QuotaExceededError{NextEligibleIn: s.nextWindowIn(now, q)}
			}
			q.ManualCount++
			return q, nil
		})
		if err != nil {
			s.logger.Debug().Str("user_id", userID).Err(err).Msg("manual refresh denied")
		}
		return err

	case recommend.RefreshAuto:
		idx, ok := currentWindow(now)
		if !ok {
			return recommend.ErrWindowUnavailable
		}
		_, err := s.store.Update(ctx, userID, func(q RefreshQuota) (RefreshQuota, error) {
			q = q.Rollover(dayKey)
			if q.windowUsed(idx) {
				return q, recommend.ErrWindowUnavailable
			}
			q.markWindow(idx)
			return q, nil
		})
		if err != nil {
			s.logger.Debug().Str("user_id", userID).Str("window", refreshWindows[idx].name).Err(err).Msg("auto refresh denied")
		}
		return err

	case recommend.RefreshNone:
		return nil

	default:
		return recommend.ErrInvalidRefreshKind
	}
}

// Quota returns the user's current-day quota, rolled over but not
// persisted. Exposed for status endpoints.
func (s *Scheduler) Quota(ctx context.Context, userID string) (RefreshQuota, error) {
	q, err := s.store.Get(ctx, userID)
	if err != nil {
		return RefreshQuota{}, err
	}
	return q.Rollover(s.now().In(s.loc).Format(dayKeyLayout)), nil
}

// currentWindow returns the index of the window containing now, if any.
func currentWindow(now time.Time) (int, bool) {
	for i, w := range refreshWindows {
		if now.Hour() >= w.startHour && now.Hour() < w.endHour {
			return i, true
		}
	}
	return 0, false
}

// nextWindowIn computes the time until the next eligible auto-refresh
// window: zero when now is inside an unspent window, otherwise the gap to
// the next unspent window start today, falling back to tomorrow's morning
// window (flags reset at rollover).
func (s *Scheduler) nextWindowIn(now time.Time, q RefreshQuota) time.Duration {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for i, w := range refreshWindows {
		if q.windowUsed(i) {
			continue
		}
		start := midnight.Add(time.Duration(w.startHour) * time.Hour)
		end := midnight.Add(time.Duration(w.endHour) * time.Hour)
		if !now.Before(start) && now.Before(end) {
			return 0
		}
		if now.Before(start) {
			return start.Sub(now)
		}
	}

	tomorrow := midnight.AddDate(0, 0, 1).Add(time.Duration(refreshWindows[0].startHour) * time.Hour)
	return tomorrow.Sub(now)
}
