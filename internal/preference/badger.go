// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package preference

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/soundhaus/attune/internal/recommend"
)

// Key prefixes for BadgerDB storage
const (
	prefKeyPrefix = "pref:"
	markKeyPrefix = "mark:"
)

// BadgerStore implements recommend.PreferenceStore on BadgerDB. Badger's
// transactions give per-key write serialization: a conflicting Apply fails
// with ErrConflict and is retried once before surfacing
// recommend.ErrTemporarilyUnavailable.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a preference store from an existing DB connection.
// The caller owns the DB lifecycle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens a BadgerDB at the given path with store defaults. An
// empty path opens an in-memory instance, used by tests.
func OpenBadger(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for preferences: %w", err)
	}
	return db, nil
}

func badgerPrefKey(userID, genre string) []byte {
	return []byte(prefKeyPrefix + userID + ":" + genre)
}

func badgerMarkKey(userID, itemID string, t recommend.InteractionType) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%d", markKeyPrefix, userID, itemID, t))
}

// Get returns the aggregate for (user, genre), or the default record when
// absent. The default is not persisted.
func (s *BadgerStore) Get(_ context.Context, userID, genre string) (recommend.GenrePreference, error) {
	pref := recommend.DefaultGenrePreference(userID, genre)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerPrefKey(userID, genre))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get preference: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &pref)
		})
	})
	if err != nil {
		return recommend.GenrePreference{}, err
	}
	return pref, nil
}

// Apply folds one delta into the aggregate inside a single transaction.
// A write conflict is retried once; a second conflict surfaces
// recommend.ErrTemporarilyUnavailable so the caller can resubmit.
func (s *BadgerStore) Apply(ctx context.Context, userID, genre string, delta recommend.PreferenceDelta) (recommend.GenrePreference, error) {
	var updated recommend.GenrePreference

	apply := func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			pref := recommend.DefaultGenrePreference(userID, genre)

			key := badgerPrefKey(userID, genre)
			item, err := txn.Get(key)
			if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("get preference: %w", err)
			}
			if err == nil {
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &pref)
				}); err != nil {
					return fmt.Errorf("unmarshal preference: %w", err)
				}
			}

			updated = pref.Apply(delta)
			data, err := json.Marshal(updated)
			if err != nil {
				return fmt.Errorf("marshal preference: %w", err)
			}
			return txn.Set(key, data)
		})
	}

	err := apply()
	if errors.Is(err, badger.ErrConflict) {
		if err := ctx.Err(); err != nil {
			return recommend.GenrePreference{}, err
		}
		err = apply()
	}
	if errors.Is(err, badger.ErrConflict) {
		return recommend.GenrePreference{}, recommend.ErrTemporarilyUnavailable
	}
	if err != nil {
		return recommend.GenrePreference{}, err
	}
	return updated, nil
}

// ListGenres returns every aggregate recorded for the user.
func (s *BadgerStore) ListGenres(_ context.Context, userID string) ([]recommend.GenrePreference, error) {
	var out []recommend.GenrePreference

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefKeyPrefix + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var pref recommend.GenrePreference
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &pref)
			})
			if err != nil {
				return fmt.Errorf("unmarshal preference: %w", err)
			}
			out = append(out, pref)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return out, nil
}

// TotalInteractions sums interaction counts across the user's genres.
func (s *BadgerStore) TotalInteractions(ctx context.Context, userID string) (int, error) {
	prefs, err := s.ListGenres(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, p := range prefs {
		total += p.InteractionCount
	}
	return total, nil
}

// Mark returns the active toggle state for (user, item, type), or nil.
func (s *BadgerStore) Mark(_ context.Context, userID, itemID string, t recommend.InteractionType) (*recommend.FeedbackMark, error) {
	var mark recommend.FeedbackMark
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerMarkKey(userID, itemID, t))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get mark: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &mark)
		})
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &mark, nil
}

// SetMark records an active toggle state, keyed by mark.Type.
func (s *BadgerStore) SetMark(_ context.Context, userID, itemID string, mark recommend.FeedbackMark) error {
	data, err := json.Marshal(mark)
	if err != nil {
		return fmt.Errorf("marshal mark: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerMarkKey(userID, itemID, mark.Type), data)
	})
}

// ClearMark removes the toggle state for (user, item, type).
func (s *BadgerStore) ClearMark(_ context.Context, userID, itemID string, t recommend.InteractionType) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(badgerMarkKey(userID, itemID, t))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
