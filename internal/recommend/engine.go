// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundhaus/attune/internal/metrics"
)

// Note: apart from the metrics leaf, this package has no dependencies on
// other internal packages. The interfaces below let the storage, catalog,
// profile, scheduler, and cache packages plug in without circular imports.

// PreferenceStore is the durable per-(user, genre) learning aggregate.
// Implementations must serialize writers per key; a lost update is a
// correctness bug.
type PreferenceStore interface {
	// Get returns the aggregate for (user, genre), or the default record
	// if absent. Absent records are not persisted by Get.
	Get(ctx context.Context, userID, genre string) (GenrePreference, error)

	// Apply folds one delta into the aggregate atomically and returns the
	// updated record. Implementations retry contended writes at least once
	// before returning ErrTemporarilyUnavailable.
	Apply(ctx context.Context, userID, genre string, delta PreferenceDelta) (GenrePreference, error)

	// ListGenres returns every aggregate recorded for the user.
	ListGenres(ctx context.Context, userID string) ([]GenrePreference, error)

	// TotalInteractions returns the user's interaction count across all
	// genres, used for epsilon decay.
	TotalInteractions(ctx context.Context, userID string) (int, error)

	// Mark returns the active toggle state for (user, item, type), or nil.
	Mark(ctx context.Context, userID, itemID string, t InteractionType) (*FeedbackMark, error)

	// SetMark records an active toggle state, keyed by mark.Type.
	SetMark(ctx context.Context, userID, itemID string, mark FeedbackMark) error

	// ClearMark removes the toggle state for (user, item, type).
	ClearMark(ctx context.Context, userID, itemID string, t InteractionType) error
}

// CandidateSource supplies per-genre candidate tracks. Implemented by the
// catalog provider client; calls may block on the network, so the engine
// never holds a store lock across them.
type CandidateSource interface {
	Candidates(ctx context.Context, genre string, limit int) ([]CatalogItem, error)
}

// ProfileSource supplies the five-trait personality profile for a user.
type ProfileSource interface {
	// Profile returns the user's profile, or an error when unavailable.
	// The engine degrades to a neutral match on any error.
	Profile(ctx context.Context, userID string) (*PersonalityProfile, error)
}

// SetCache holds the last generated recommendation set per user with a TTL.
type SetCache interface {
	// Get returns the cached set when present and unexpired.
	Get(userID string) (*RecommendationSet, bool)

	// Put replaces the user's cached set wholesale.
	Put(userID string, set *RecommendationSet)

	// Invalidate drops the user's cached set.
	Invalidate(userID string)
}

// RefreshGate decides whether a refresh request may regenerate the cached
// set. Implemented by the scheduler package.
type RefreshGate interface {
	// Authorize grants or denies the refresh. A denied manual refresh
	// returns *QuotaExceededError; a denied auto refresh returns
	// ErrWindowUnavailable, which the engine degrades to serving the cache.
	Authorize(ctx context.Context, userID string, kind RefreshKind) error
}

// LearnerStats summarizes a user's learning state.
type LearnerStats struct {
	TotalInteractions int     `json:"total_interactions"`
	Epsilon           float64 `json:"epsilon"`
}

// Engine orchestrates scheduler, cache, ranker, and preference store into
// the three exposed operations. It is safe for concurrent use; all mutable
// state lives behind the injected interfaces.
type Engine struct {
	cfg    Config
	logger zerolog.Logger

	store    PreferenceStore
	catalog  CandidateSource
	profiles ProfileSource
	cache    SetCache
	gate     RefreshGate
	ranker   *Ranker

	// toggleMu serializes the feedback toggle fold per (user, item). The
	// fold reads the mark, updates the genre aggregate, and writes the
	// mark back; interleaved identical toggles would otherwise both see
	// no active mark and double-apply.
	toggleMu [64]sync.Mutex

	// now is injectable for tests.
	now func() time.Time
}

// NewEngine wires the engine. All collaborators are required except gate,
// which may be nil when refresh gating is handled elsewhere (tests).
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func NewEngine(cfg Config, logger zerolog.Logger, store PreferenceStore, catalog CandidateSource, profiles ProfileSource, cache SetCache, gate RefreshGate) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if store == nil || catalog == nil || cache == nil {
		return nil, fmt.Errorf("store, catalog, and cache are required")
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger.With().Str("component", "engine").Logger(),
		store:    store,
		catalog:  catalog,
		profiles: profiles,
		cache:    cache,
		gate:     gate,
		ranker:   NewRanker(cfg.PersonalityWeight, cfg.PreferenceWeight, cfg.Seed),
		now:      time.Now,
	}, nil
}

// SetClock overrides the engine clock. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// GetRecommendations serves a recommendation set for the requested genres.
//
// Flow: refresh gate (quota) -> cache (serve if fresh) -> ranker -> cache.
// A denied manual refresh surfaces *QuotaExceededError; a denied auto
// refresh falls back to the cached path. A genre with no candidates is
// omitted, never an error.
func (e *Engine) GetRecommendations(ctx context.Context, userID string, genres []string, limit int, kind RefreshKind) (*RecommendationSet, error) {
	if userID == "" {
		return nil, ErrUnknownUser
	}
	if len(genres) == 0 {
		return nil, fmt.Errorf("at least one genre is required")
	}
	limit = e.clampLimit(limit)

	logger := ctxLogger(ctx, e.logger).With().Str("refresh", kind.String()).Logger()

	regenerate := false
	if kind != RefreshNone && e.gate != nil {
		if err := e.gate.Authorize(ctx, userID, kind); err != nil {
			metrics.RefreshDenied.WithLabelValues(kind.String()).Inc()
			if kind == RefreshManual {
				logger.Debug().Err(err).Msg("manual refresh denied")
				return nil, err
			}
			// Auto refresh outside its window or already used: serve the
			// cached path instead.
			logger.Debug().Err(err).Msg("auto refresh not granted")
		} else {
			regenerate = true
		}
	}

	if !regenerate {
		if set, ok := e.cachedSet(userID, genres); ok {
			logger.Debug().Msg("serving cached recommendation set")
			return set, nil
		}
	}

	start := time.Now()
	set, err := e.generate(ctx, userID, genres, limit)
	if err != nil {
		return nil, err
	}
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	metrics.RecommendationsGenerated.WithLabelValues(kind.String()).Inc()

	e.cache.Put(userID, set)
	logger.Debug().
		Int("genres", len(set.Genres)).
		Time("expires_at", set.ExpiresAt).
		Msg("generated recommendation set")

	return set, nil
}

// cachedSet returns the cached set if it is fresh and contains every
// requested genre. The cache does not record which genres a pass was asked
// for, only which produced results, so a genre whose generation found no
// candidates reads as absent and forces regeneration on each request.
func (e *Engine) cachedSet(userID string, genres []string) (*RecommendationSet, bool) {
	set, ok := e.cache.Get(userID)
	if !ok {
		return nil, false
	}
	for _, g := range genres {
		if _, present := set.Genres[g]; !present {
			return nil, false
		}
	}
	return filterSet(set, genres), true
}

// generate runs one full ranking pass. Partial results are discarded on
// cancellation and never cached.
func (e *Engine) generate(ctx context.Context, userID string, genres []string, limit int) (*RecommendationSet, error) {
	profile := e.lookupProfile(ctx, userID)
	eps := e.epsilonFor(ctx, userID)

	// Deterministic genre order keeps noise consumption reproducible.
	ordered := make([]string, len(genres))
	copy(ordered, genres)
	sort.Strings(ordered)

	now := e.now()
	set := &RecommendationSet{
		UserID:      userID,
		GeneratedAt: now,
		ExpiresAt:   now.Add(e.cfg.CacheTTL),
		Genres:      make(map[string][]ScoredTrack, len(ordered)),
	}

	for _, genre := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, err := e.catalog.Candidates(ctx, genre, e.cfg.CandidatePoolSize)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			ctxLogger(ctx, e.logger).Warn().Err(err).Str("genre", genre).Msg("candidate fetch failed, omitting genre")
			continue
		}
		if len(items) == 0 {
			continue
		}

		pref, err := e.store.Get(ctx, userID, genre)
		if err != nil {
			ctxLogger(ctx, e.logger).Warn().Err(err).Str("genre", genre).Msg("preference read failed, using default")
			pref = DefaultGenrePreference(userID, genre)
		}

		ranked := e.ranker.RankGenre(profile, items, pref, eps, limit)
		if len(ranked) > 0 {
			set.Genres[genre] = ranked
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// toggleLock returns the stripe serializing toggles for (user, item).
// Distinct pairs may share a stripe; the same pair never maps to two.
func (e *Engine) toggleLock(userID, itemID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(itemID))
	return &e.toggleMu[h.Sum32()%uint32(len(e.toggleMu))]
}

// RecordFeedback folds one interaction into the preference store.
//
// Toggleable types (like, dislike, save, add-to-playlist) track an active
// mark per (user, item): re-sending the active type undoes it, and a
// like/dislike switch cancels the old effect before applying the new one.
// Repeatable types apply unconditionally; idempotency is not guaranteed.
func (e *Engine) RecordFeedback(ctx context.Context, i Interaction) error {
	if i.UserID == "" {
		metrics.FeedbackRejected.WithLabelValues("unknown_user").Inc()
		return ErrUnknownUser
	}

	reward, err := Reward(i)
	if err != nil {
		metrics.FeedbackRejected.WithLabelValues("invalid_type").Inc()
		return err
	}

	if !i.Type.Toggleable() {
		if _, err = e.store.Apply(ctx, i.UserID, i.Genre, DeltaFor(i.Type, reward)); err != nil {
			metrics.FeedbackRejected.WithLabelValues("store_unavailable").Inc()
			return err
		}
		metrics.FeedbackRecorded.WithLabelValues(i.Type.String()).Inc()
		return nil
	}

	mu := e.toggleLock(i.UserID, i.ItemID)
	mu.Lock()
	defer mu.Unlock()

	// Toggle-off: the same type is already active for this item.
	active, err := e.store.Mark(ctx, i.UserID, i.ItemID, i.Type)
	if err != nil {
		return fmt.Errorf("read feedback mark: %w", err)
	}
	if active != nil {
		if _, err := e.store.Apply(ctx, i.UserID, active.Genre, UndoDelta(i.Type, active.Reward)); err != nil {
			return err
		}
		return e.store.ClearMark(ctx, i.UserID, i.ItemID, i.Type)
	}

	// Rating switch: cancel an opposite like/dislike before applying.
	if opp, ok := oppositeRating(i.Type); ok {
		prev, err := e.store.Mark(ctx, i.UserID, i.ItemID, opp)
		if err != nil {
			return fmt.Errorf("read feedback mark: %w", err)
		}
		if prev != nil {
			if _, err := e.store.Apply(ctx, i.UserID, prev.Genre, UndoDelta(opp, prev.Reward)); err != nil {
				return err
			}
			if err := e.store.ClearMark(ctx, i.UserID, i.ItemID, opp); err != nil {
				return err
			}
		}
	}

	if _, err := e.store.Apply(ctx, i.UserID, i.Genre, DeltaFor(i.Type, reward)); err != nil {
		return err
	}
	if err := e.store.SetMark(ctx, i.UserID, i.ItemID, FeedbackMark{Type: i.Type, Reward: reward, Genre: i.Genre}); err != nil {
		// Roll the aggregate back; an applied toggle with no mark could
		// never be undone.
		if _, undoErr := e.store.Apply(ctx, i.UserID, i.Genre, UndoDelta(i.Type, reward)); undoErr != nil {
			return errors.Join(err, undoErr)
		}
		return err
	}
	metrics.FeedbackRecorded.WithLabelValues(i.Type.String()).Inc()
	return nil
}

// TopGenres returns the user's genre aggregates ordered by preference
// score, then interaction count, then genre name.
func (e *Engine) TopGenres(ctx context.Context, userID string, limit int) ([]GenrePreference, error) {
	if userID == "" {
		return nil, ErrUnknownUser
	}

	prefs, err := e.store.ListGenres(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}

	sort.Slice(prefs, func(i, j int) bool {
		a, b := prefs[i], prefs[j]
		if a.PreferenceScore != b.PreferenceScore {
			return a.PreferenceScore > b.PreferenceScore
		}
		if a.InteractionCount != b.InteractionCount {
			return a.InteractionCount > b.InteractionCount
		}
		return a.Genre < b.Genre
	})

	if limit > 0 && len(prefs) > limit {
		prefs = prefs[:limit]
	}
	return prefs, nil
}

// Stats returns the user's learning state summary.
func (e *Engine) Stats(ctx context.Context, userID string) (LearnerStats, error) {
	if userID == "" {
		return LearnerStats{}, ErrUnknownUser
	}
	total, err := e.store.TotalInteractions(ctx, userID)
	if err != nil {
		return LearnerStats{}, fmt.Errorf("total interactions: %w", err)
	}
	return LearnerStats{
		TotalInteractions: total,
		Epsilon:           Epsilon(total, e.cfg.EpsilonStart, e.cfg.EpsilonMin),
	}, nil
}

// Invalidate drops the user's cached set; the next request regenerates.
func (e *Engine) Invalidate(userID string) {
	e.cache.Invalidate(userID)
}

// lookupProfile fetches the profile, degrading to nil (neutral match) on
// any failure.
func (e *Engine) lookupProfile(ctx context.Context, userID string) *PersonalityProfile {
	if e.profiles == nil {
		return nil
	}
	profile, err := e.profiles.Profile(ctx, userID)
	if err != nil {
		ctxLogger(ctx, e.logger).Warn().Err(err).Msg("profile unavailable, using neutral match")
		return nil
	}
	return profile
}

// epsilonFor computes the user's exploration rate, defaulting to the cold
// start value when the store is unreadable.
func (e *Engine) epsilonFor(ctx context.Context, userID string) float64 {
	total, err := e.store.TotalInteractions(ctx, userID)
	if err != nil {
		ctxLogger(ctx, e.logger).Warn().Err(err).Msg("interaction count unavailable, using cold-start epsilon")
		total = 0
	}
	return Epsilon(total, e.cfg.EpsilonStart, e.cfg.EpsilonMin)
}

// clampLimit applies the default and maximum per-genre limits.
func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

// oppositeRating returns the opposing explicit rating, if t is one.
func oppositeRating(t InteractionType) (InteractionType, bool) {
	switch t {
	case InteractionLike:
		return InteractionDislike, true
	case InteractionDislike:
		return InteractionLike, true
	default:
		return 0, false
	}
}

// filterSet returns a copy of the set restricted to the requested genres.
// The cached original is never mutated.
func filterSet(set *RecommendationSet, genres []string) *RecommendationSet {
	out := &RecommendationSet{
		UserID:      set.UserID,
		GeneratedAt: set.GeneratedAt,
		ExpiresAt:   set.ExpiresAt,
		Genres:      make(map[string][]ScoredTrack, len(genres)),
	}
	for _, g := range genres {
		if tracks, ok := set.Genres[g]; ok {
			out.Genres[g] = tracks
		}
	}
	return out
}

// ctxLogger returns a request-scoped logger. The logging package is not
// imported here to keep this package dependency-free; callers that want
// request IDs in engine logs attach them via zerolog's context support.
//
//nolint:gocritic // zerolog passes loggers by value
func ctxLogger(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}
