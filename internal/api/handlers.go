// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/soundhaus/attune/internal/logging"
	"github.com/soundhaus/attune/internal/recommend"
	"github.com/soundhaus/attune/internal/scheduler"
)

// RecommendationService is the engine surface the handlers need.
type RecommendationService interface {
	GetRecommendations(ctx context.Context, userID string, genres []string, limit int, kind recommend.RefreshKind) (*recommend.RecommendationSet, error)
	RecordFeedback(ctx context.Context, i recommend.Interaction) error
	TopGenres(ctx context.Context, userID string, limit int) ([]recommend.GenrePreference, error)
	Stats(ctx context.Context, userID string) (recommend.LearnerStats, error)
}

// QuotaService exposes the refresh quota snapshot.
type QuotaService interface {
	Quota(ctx context.Context, userID string) (scheduler.RefreshQuota, error)
}

// Handler holds the HTTP handlers for the recommendation endpoints.
type Handler struct {
	engine RecommendationService
	quota  QuotaService
	ready  func(ctx context.Context) error
}

// NewHandler builds a Handler over the engine and scheduler.
func NewHandler(engine RecommendationService, quota QuotaService) *Handler {
	return &Handler{engine: engine, quota: quota}
}

// GetRecommendations serves GET /api/v1/recommendations.
//
// Query parameters:
//
//	genres:  comma-separated genre list (required)
//	limit:   per-genre result cap (optional)
//	refresh: "none" (default), "manual", or "auto"
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := logging.UserIDFromContext(r.Context())

	q := r.URL.Query()
	req := RecommendationsRequest{
		Genres:  splitGenres(q.Get("genres")),
		Refresh: q.Get("refresh"),
	}
	if rawLimit := q.Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "limit must be an integer")
			return
		}
		req.Limit = limit
	}
	if err := validateRequest(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	kind, err := recommend.ParseRefreshKind(req.Refresh)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "refresh must be none, manual, or auto")
		return
	}

	set, err := h.engine.GetRecommendations(r.Context(), userID, req.Genres, req.Limit, kind)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	WriteSuccess(w, r, set)
}

// PostFeedback serves POST /api/v1/feedback.
func (h *Handler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	userID := logging.UserIDFromContext(r.Context())

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	kind, err := recommend.ParseInteractionType(req.Type)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "unrecognized interaction type")
		return
	}

	interaction := recommend.Interaction{
		UserID:         userID,
		ItemID:         req.ItemID,
		Genre:          req.Genre,
		Type:           kind,
		ListenDuration: time.Duration(req.ListenDurationSeconds * float64(time.Second)),
		TrackDuration:  time.Duration(req.TrackDurationSeconds * float64(time.Second)),
		Timestamp:      time.Now().UTC(),
	}
	if err := h.engine.RecordFeedback(r.Context(), interaction); err != nil {
		writeEngineError(w, r, err)
		return
	}

	// Feedback is folded into the aggregate, not stored as an event, so
	// 202 signals "absorbed" rather than "created".
	WriteAccepted(w, r, map[string]string{"status": "recorded"})
}

// topGenreEntry is the per-genre payload of the top preferences endpoint.
type topGenreEntry struct {
	Genre            string  `json:"genre"`
	PreferenceScore  float64 `json:"preference_score"`
	InteractionCount int     `json:"interaction_count"`
	AvgReward        float64 `json:"avg_reward"`
}

// TopPreferences serves GET /api/v1/preferences/top.
func (h *Handler) TopPreferences(w http.ResponseWriter, r *http.Request) {
	userID := logging.UserIDFromContext(r.Context())

	req := TopPreferencesRequest{}
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "limit must be an integer")
			return
		}
		req.Limit = limit
	}
	if err := validateRequest(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	prefs, err := h.engine.TopGenres(r.Context(), userID, req.Limit)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	entries := make([]topGenreEntry, 0, len(prefs))
	for _, p := range prefs {
		entries = append(entries, topGenreEntry{
			Genre:            p.Genre,
			PreferenceScore:  p.PreferenceScore,
			InteractionCount: p.InteractionCount,
			AvgReward:        p.AvgReward(),
		})
	}
	WriteSuccess(w, r, entries)
}

// statsPayload joins the learner state with the day's refresh quota.
type statsPayload struct {
	TotalInteractions int     `json:"total_interactions"`
	Epsilon           float64 `json:"epsilon"`
	ManualRefreshes   int     `json:"manual_refreshes_used"`
	MorningUsed       bool    `json:"morning_window_used"`
	NoonUsed          bool    `json:"noon_window_used"`
	EveningUsed       bool    `json:"evening_window_used"`
}

// GetStats serves GET /api/v1/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := logging.UserIDFromContext(r.Context())

	stats, err := h.engine.Stats(r.Context(), userID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	payload := statsPayload{
		TotalInteractions: stats.TotalInteractions,
		Epsilon:           stats.Epsilon,
	}
	if h.quota != nil {
		quota, err := h.quota.Quota(r.Context(), userID)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("quota snapshot failed")
		} else {
			payload.ManualRefreshes = quota.ManualCount
			payload.MorningUsed = quota.MorningUsed
			payload.NoonUsed = quota.NoonUsed
			payload.EveningUsed = quota.EveningUsed
		}
	}
	WriteSuccess(w, r, payload)
}

// SetReadyCheck installs the readiness probe. Typically a preference
// store round trip.
func (h *Handler) SetReadyCheck(check func(ctx context.Context) error) {
	h.ready = check
}

// HealthLive serves GET /api/v1/health/live. It reports process liveness
// only; provider failures degrade responses rather than health.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]string{"status": "ok"})
}

// HealthReady serves GET /api/v1/health/ready. Ready means the store
// answers; catalog and profile outages are not readiness failures.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
			WriteError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "store not ready")
			return
		}
	}
	WriteSuccess(w, r, map[string]string{"status": "ready"})
}
