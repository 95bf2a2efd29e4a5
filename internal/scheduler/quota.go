// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/soundhaus/attune/internal/recommend"
)

// RefreshQuota is the per-user, per-local-day refresh budget: a bounded
// manual counter and one-shot flags for the three auto-refresh windows.
type RefreshQuota struct {
	// DayKey is the local calendar date ("2006-01-02") the counters belong
	// to. A mismatch with the current date resets everything.
	DayKey string `json:"day_key"`

	// ManualCount is the number of granted manual refreshes today.
	ManualCount int `json:"manual_count"`

	MorningUsed bool `json:"morning_used"`
	NoonUsed    bool `json:"noon_used"`
	EveningUsed bool `json:"evening_used"`
}

// Rollover resets the quota if the stored day-key no longer matches the
// current one. Comparing day-keys instead of running a midnight timer keeps
// resets correct across restarts and clock drift.
func (q RefreshQuota) Rollover(dayKey string) RefreshQuota {
	if q.DayKey == dayKey {
		return q
	}
	return RefreshQuota{DayKey: dayKey}
}

// windowUsed reports the one-shot flag for the window at index i.
func (q RefreshQuota) windowUsed(i int) bool {
	switch i {
	case 0:
		return q.MorningUsed
	case 1:
		return q.NoonUsed
	default:
		return q.EveningUsed
	}
}

// markWindow sets the one-shot flag for the window at index i.
func (q *RefreshQuota) markWindow(i int) {
	switch i {
	case 0:
		q.MorningUsed = true
	case 1:
		q.NoonUsed = true
	default:
		q.EveningUsed = true
	}
}

// QuotaStore persists refresh quotas. Update must apply the mutation
// atomically per user; when the mutation returns an error nothing is
// written and the error is returned unchanged.
type QuotaStore interface {
	Get(ctx context.Context, userID string) (RefreshQuota, error)
	Update(ctx context.Context, userID string, fn func(q RefreshQuota) (RefreshQuota, error)) (RefreshQuota, error)
}

// MemoryQuotaStore is an in-memory quota store for tests and ephemeral
// deployments.
type MemoryQuotaStore struct {
	mu     sync.Mutex
	quotas map[string]RefreshQuota
}

// NewMemoryQuotaStore creates an empty in-memory quota store.
func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{quotas: make(map[string]RefreshQuota)}
}

// Get returns the stored quota, or a zero record when absent.
func (s *MemoryQuotaStore) Get(_ context.Context, userID string) (RefreshQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quotas[userID], nil
}

// Update applies the mutation under the store lock.
func (s *MemoryQuotaStore) Update(_ context.Context, userID string, fn func(q RefreshQuota) (RefreshQuota, error)) (RefreshQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := fn(s.quotas[userID])
	if err != nil {
		return RefreshQuota{}, err
	}
	s.quotas[userID] = updated
	return updated, nil
}

// quotaKeyPrefix namespaces quota records in the shared BadgerDB.
const quotaKeyPrefix = "quota:"

// BadgerQuotaStore persists quotas in BadgerDB, typically sharing the
// connection with the preference store. A conflicting Update is retried once
// before surfacing recommend.ErrTemporarilyUnavailable.
type BadgerQuotaStore struct {
	db *badger.DB
}

// NewBadgerQuotaStore creates a quota store from an existing DB connection.
func NewBadgerQuotaStore(db *badger.DB) *BadgerQuotaStore {
	return &BadgerQuotaStore{db: db}
}

func quotaKey(userID string) []byte {
	return []byte(quotaKeyPrefix + userID)
}

// Get returns the stored quota, or a zero record when absent.
func (s *BadgerQuotaStore) Get(_ context.Context, userID string) (RefreshQuota, error) {
	var quota RefreshQuota

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(quotaKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get quota: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &quota)
		})
	})
	if err != nil {
		return RefreshQuota{}, err
	}
	return quota, nil
}

// Update applies the mutation inside a single transaction, retrying once on
// a write conflict.
func (s *BadgerQuotaStore) Update(ctx context.Context, userID string, fn func(q RefreshQuota) (RefreshQuota, error)) (RefreshQuota, error) {
	var updated RefreshQuota

	apply := func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			var quota RefreshQuota

			key := quotaKey(userID)
			item, err := txn.Get(key)
			if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("get quota: %w", err)
			}
			if err == nil {
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &quota)
				}); err != nil {
					return fmt.Errorf("unmarshal quota: %w", err)
				}
			}

			updated, err = fn(quota)
			if err != nil {
				return err
			}
			data, err := json.Marshal(updated)
			if err != nil {
				return fmt.Errorf("marshal quota: %w", err)
			}
			return txn.Set(key, data)
		})
	}

	err := apply()
	if errors.Is(err, badger.ErrConflict) {
		if err := ctx.Err(); err != nil {
			return RefreshQuota{}, err
		}
		err = apply()
	}
	if errors.Is(err, badger.ErrConflict) {
		return RefreshQuota{}, recommend.ErrTemporarilyUnavailable
	}
	if err != nil {
		return RefreshQuota{}, err
	}
	return updated, nil
}
