// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. It is safe for concurrent
// use and caches struct metadata across requests.
var validate = validator.New()

// RecommendationsRequest holds the validated query parameters for
// GET /api/v1/recommendations.
type RecommendationsRequest struct {
	// Genres is the non-empty list of genres to recommend from.
	Genres []string `validate:"required,min=1,max=20,dive,required,max=64"`

	// Limit is the per-genre result cap. Zero means the server default.
	Limit int `validate:"min=0,max=1000"`

	// Refresh is the refresh kind: "", "none", "manual", or "auto".
	Refresh string `validate:"omitempty,oneof=none manual auto"`
}

// FeedbackRequest is the request body for POST /api/v1/feedback.
type FeedbackRequest struct {
	// ItemID is the track the feedback applies to.
	ItemID string `json:"item_id" validate:"required,max=128"`

	// Genre is the category the feedback applies to.
	Genre string `json:"genre" validate:"required,max=64"`

	// Type is the interaction type name, e.g. "like" or "skip".
	Type string `json:"type" validate:"required,max=32"`

	// ListenDurationSeconds is how long the user listened. Optional.
	ListenDurationSeconds float64 `json:"listen_duration_seconds" validate:"min=0"`

	// TrackDurationSeconds is the full track length. Optional.
	TrackDurationSeconds float64 `json:"track_duration_seconds" validate:"min=0"`
}

// TopPreferencesRequest holds the validated query parameters for
// GET /api/v1/preferences/top.
type TopPreferencesRequest struct {
	// Limit caps the number of genres returned. Zero means all.
	Limit int `validate:"min=0,max=1000"`
}

// validateRequest runs validator tags and flattens the first failure into
// a client-facing message.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("field %s failed %s validation", strings.ToLower(fe.Field()), fe.Tag())
	}
	return err
}

// splitGenres parses the comma-separated genres query parameter, dropping
// empty segments and trimming whitespace.
func splitGenres(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}
