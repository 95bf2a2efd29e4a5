// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package preference

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundhaus/attune/internal/recommend"
)

// MemoryStore is an in-memory preference store. It is safe for concurrent
// use and suitable for tests and single-process ephemeral deployments;
// nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]recommend.GenrePreference
	marks map[string]recommend.FeedbackMark
}

// NewMemoryStore creates an empty in-memory preference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prefs: make(map[string]recommend.GenrePreference),
		marks: make(map[string]recommend.FeedbackMark),
	}
}

func memPrefKey(userID, genre string) string {
	return userID + "\x00" + genre
}

func memMarkKey(userID, itemID string, t recommend.InteractionType) string {
	return fmt.Sprintf("%s\x00%s\x00%d", userID, itemID, t)
}

// Get returns the aggregate for (user, genre), or the default record if no
// interactions were recorded. The default is not persisted.
func (s *MemoryStore) Get(_ context.Context, userID, genre string) (recommend.GenrePreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.prefs[memPrefKey(userID, genre)]; ok {
		return p, nil
	}
	return recommend.DefaultGenrePreference(userID, genre), nil
}

// Apply folds one delta into the aggregate under the store lock, which
// serializes all writers.
func (s *MemoryStore) Apply(_ context.Context, userID, genre string, delta recommend.PreferenceDelta) (recommend.GenrePreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memPrefKey(userID, genre)
	p, ok := s.prefs[key]
	if !ok {
		p = recommend.DefaultGenrePreference(userID, genre)
	}
	p = p.Apply(delta)
	s.prefs[key] = p
	return p, nil
}

// ListGenres returns every aggregate recorded for the user, in no
// particular order.
func (s *MemoryStore) ListGenres(_ context.Context, userID string) ([]recommend.GenrePreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []recommend.GenrePreference
	for _, p := range s.prefs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// TotalInteractions sums interaction counts across the user's genres.
func (s *MemoryStore) TotalInteractions(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, p := range s.prefs {
		if p.UserID == userID {
			total += p.InteractionCount
		}
	}
	return total, nil
}

// Mark returns the active toggle state for (user, item, type), or nil.
func (s *MemoryStore) Mark(_ context.Context, userID, itemID string, t recommend.InteractionType) (*recommend.FeedbackMark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.marks[memMarkKey(userID, itemID, t)]; ok {
		cp := m
		return &cp, nil
	}
	return nil, nil
}

// SetMark records an active toggle state, keyed by mark.Type.
func (s *MemoryStore) SetMark(_ context.Context, userID, itemID string, mark recommend.FeedbackMark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marks[memMarkKey(userID, itemID, mark.Type)] = mark
	return nil
}

// ClearMark removes the toggle state for (user, item, type).
func (s *MemoryStore) ClearMark(_ context.Context, userID, itemID string, t recommend.InteractionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.marks, memMarkKey(userID, itemID, t))
	return nil
}
