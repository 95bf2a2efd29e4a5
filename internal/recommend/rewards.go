// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

// baseRewards maps interaction types to signed base rewards. Explicit
// ratings carry the strongest signal, ambient actions (play, share) a
// smaller one.
var baseRewards = map[InteractionType]float64{
	InteractionLike:          1.0,
	InteractionDislike:       -1.0,
	InteractionPlay:          0.8,
	InteractionSkip:          -0.4,
	InteractionSave:          1.5,
	InteractionAddToPlaylist: 1.8,
	InteractionRepeat:        1.2,
	InteractionShare:         1.3,
}

// Reward derives the signed reward for an interaction. When duration data
// is present, the base reward is scaled by the completion ratio
// (listen/track clamped to [0,1]); otherwise the base reward applies as-is.
// Returns ErrInvalidInteractionType for unrecognized types.
func Reward(i Interaction) (float64, error) {
	base, ok := baseRewards[i.Type]
	if !ok {
		return 0, ErrInvalidInteractionType
	}

	if ratio, present := i.CompletionRatio(); present {
		return base * ratio, nil
	}
	return base, nil
}

// DeltaFor builds the preference delta for applying an interaction with
// the given derived reward.
func DeltaFor(t InteractionType, reward float64) PreferenceDelta {
	d := PreferenceDelta{Reward: reward, CountDelta: 1}
	if t.CountsPositive() {
		d.PositiveDelta = 1
	}
	if t.CountsNegative() {
		d.NegativeDelta = 1
	}
	return d
}

// UndoDelta builds the delta that exactly reverses a previously applied
// interaction: opposite-sign reward and matching counter decrement.
func UndoDelta(t InteractionType, appliedReward float64) PreferenceDelta {
	d := PreferenceDelta{Reward: -appliedReward, CountDelta: -1}
	if t.CountsPositive() {
		d.PositiveDelta = -1
	}
	if t.CountsNegative() {
		d.NegativeDelta = -1
	}
	return d
}
