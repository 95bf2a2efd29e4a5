// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package preference

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/soundhaus/attune/internal/recommend"
)

// StoreType selects the preference storage backend.
type StoreType string

const (
	// StoreMemory uses in-memory storage (not persistent).
	StoreMemory StoreType = "memory"

	// StoreBadger uses BadgerDB for persistent storage.
	StoreBadger StoreType = "badger"
)

// Factory creates preference stores based on configuration.
type Factory struct {
	db *badger.DB
}

// NewFactory creates a store factory. For the badger backend it opens a
// BadgerDB at the given path; for memory (or empty) no database is opened.
func NewFactory(storeType StoreType, path string) (*Factory, error) {
	factory := &Factory{}

	switch storeType {
	case StoreBadger:
		db, err := OpenBadger(path)
		if err != nil {
			return nil, err
		}
		factory.db = db
	case StoreMemory, "":
	default:
		return nil, fmt.Errorf("unknown preference store type %q", storeType)
	}

	return factory, nil
}

// CreateStore creates a store for the configured backend.
func (f *Factory) CreateStore() recommend.PreferenceStore {
	if f.db != nil {
		return NewBadgerStore(f.db)
	}
	return NewMemoryStore()
}

// DB returns the underlying BadgerDB, or nil for the memory backend. The
// scheduler's quota store shares this connection.
func (f *Factory) DB() *badger.DB {
	return f.db
}

// Close closes the underlying BadgerDB if one was opened.
func (f *Factory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
