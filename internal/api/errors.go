// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/soundhaus/attune/internal/recommend"
)

// quotaDetails is the Details payload for denied manual refreshes. The
// countdown lets clients show "next refresh in N" without knowing the
// window schedule.
type quotaDetails struct {
	RetryInSeconds int64 `json:"retry_in_seconds"`
}

// writeEngineError maps engine errors onto HTTP responses. Denied quotas
// and bad input are expected outcomes and logged at debug level by the
// engine itself, so this only translates.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var quotaErr *recommend.QuotaExceededError
	if errors.As(err, &quotaErr) {
		WriteErrorWithDetails(w, r, http.StatusTooManyRequests, ErrCodeQuotaExceeded,
			"manual refresh quota exceeded", quotaDetails{
				RetryInSeconds: int64(math.Ceil(quotaErr.NextEligibleIn.Seconds())),
			})
		return
	}

	switch {
	case errors.Is(err, recommend.ErrInvalidInteractionType),
		errors.Is(err, recommend.ErrInvalidRefreshKind):
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case errors.Is(err, recommend.ErrUnknownUser):
		WriteError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "user identity required")
	case errors.Is(err, recommend.ErrTemporarilyUnavailable):
		WriteError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"temporarily unavailable, please retry")
	default:
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternalError,
			"internal error")
	}
}
