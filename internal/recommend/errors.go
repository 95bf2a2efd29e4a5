// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the recommendation core. None of these are fatal to
// the process; every failure is scoped to a single request or genre.
var (
	// ErrInvalidInteractionType indicates a feedback event with an
	// unrecognized type. The request is rejected with no state change.
	ErrInvalidInteractionType = errors.New("invalid interaction type")

	// ErrInvalidRefreshKind indicates an unrecognized refresh parameter.
	ErrInvalidRefreshKind = errors.New("invalid refresh kind")

	// ErrUnknownUser indicates a request without a usable user identifier.
	ErrUnknownUser = errors.New("unknown user")

	// ErrQuotaExceeded is the sentinel matched by errors.Is for denied
	// manual refreshes. The concrete error is *QuotaExceededError.
	ErrQuotaExceeded = errors.New("manual refresh quota exceeded")

	// ErrTemporarilyUnavailable indicates a preference store mutation that
	// failed after retry. The caller may resubmit the event.
	ErrTemporarilyUnavailable = errors.New("preference store temporarily unavailable")

	// ErrNoCandidates is an internal per-genre signal; the genre is omitted
	// from the result rather than failing the response.
	ErrNoCandidates = errors.New("no candidates for genre")

	// ErrWindowUnavailable is returned by the refresh gate when an auto
	// refresh is requested outside a scheduled window or the window's grant
	// is already spent. The engine degrades to the cached path.
	ErrWindowUnavailable = errors.New("refresh window unavailable")
)

// QuotaExceededError is returned when a manual refresh is denied. It is an
// expected outcome, not an exception: the caller surfaces NextEligibleIn as
// a countdown to the next automatic refresh window.
type QuotaExceededError struct {
	// NextEligibleIn is the time until the next eligible refresh window,
	// computed deterministically from the current time and the window
	// boundaries.
	NextEligibleIn time.Duration
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("manual refresh quota exceeded, next window in %s", e.NextEligibleIn)
}

// Is makes errors.Is(err, ErrQuotaExceeded) match.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
