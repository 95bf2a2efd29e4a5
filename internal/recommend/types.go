// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

import (
	"time"
)

// InteractionType classifies user feedback on a track.
type InteractionType int

const (
	// InteractionLike is an explicit thumbs-up. Toggleable.
	InteractionLike InteractionType = iota
	// InteractionDislike is an explicit thumbs-down. Toggleable.
	InteractionDislike
	// InteractionPlay indicates the user started playback.
	InteractionPlay
	// InteractionSkip indicates the user skipped the track.
	InteractionSkip
	// InteractionSave indicates the user saved the track to their library. Toggleable.
	InteractionSave
	// InteractionAddToPlaylist indicates the user added the track to a playlist. Toggleable.
	InteractionAddToPlaylist
	// InteractionRepeat indicates the user replayed the track.
	InteractionRepeat
	// InteractionShare indicates the user shared the track.
	InteractionShare
)

// String returns the wire name for the interaction type.
func (t InteractionType) String() string {
	switch t {
	case InteractionLike:
		return "like"
	case InteractionDislike:
		return "dislike"
	case InteractionPlay:
		return "play"
	case InteractionSkip:
		return "skip"
	case InteractionSave:
		return "save"
	case InteractionAddToPlaylist:
		return "add_to_playlist"
	case InteractionRepeat:
		return "repeat"
	case InteractionShare:
		return "share"
	default:
		return "unknown"
	}
}

// ParseInteractionType parses a wire name into an InteractionType.
// Returns ErrInvalidInteractionType for unrecognized names.
func ParseInteractionType(s string) (InteractionType, error) {
	switch s {
	case "like":
		return InteractionLike, nil
	case "dislike":
		return InteractionDislike, nil
	case "play":
		return InteractionPlay, nil
	case "skip":
		return InteractionSkip, nil
	case "save":
		return InteractionSave, nil
	case "add_to_playlist", "addToPlaylist":
		return InteractionAddToPlaylist, nil
	case "repeat":
		return InteractionRepeat, nil
	case "share":
		return InteractionShare, nil
	default:
		return 0, ErrInvalidInteractionType
	}
}

// Toggleable reports whether the interaction represents a stateful button
// (like, dislike, save, add-to-playlist) that a second identical submission
// switches off. Play, skip, repeat, and share are repeatable events.
func (t InteractionType) Toggleable() bool {
	switch t {
	case InteractionLike, InteractionDislike, InteractionSave, InteractionAddToPlaylist:
		return true
	default:
		return false
	}
}

// CountsPositive reports whether the interaction increments the positive
// counter of a genre preference.
func (t InteractionType) CountsPositive() bool {
	switch t {
	case InteractionLike, InteractionPlay, InteractionSave, InteractionRepeat:
		return true
	default:
		return false
	}
}

// CountsNegative reports whether the interaction increments the negative
// counter of a genre preference.
func (t InteractionType) CountsNegative() bool {
	return t == InteractionDislike || t == InteractionSkip
}

// PersonalityProfile holds the Big Five trait scores, each in [0,1].
// It is an immutable per-request snapshot owned by the caller.
type PersonalityProfile struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// NeutralProfile returns the profile used when no profile is available.
// All traits at the midpoint produce a neutral personality match.
func NeutralProfile() PersonalityProfile {
	return PersonalityProfile{
		Openness:          0.5,
		Conscientiousness: 0.5,
		Extraversion:      0.5,
		Agreeableness:     0.5,
		Neuroticism:       0.5,
	}
}

// FeatureVector is the fixed numeric feature vector of a catalog track.
// Every dimension is normalized into [0,1]; Tempo and Popularity are
// pre-normalized by the feature adapter.
type FeatureVector struct {
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Danceability     float64 `json:"danceability"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Tempo            float64 `json:"tempo"`
	Popularity       float64 `json:"popularity"`
}

// CatalogItem is a candidate track supplied by the catalog provider.
// Immutable within a ranking call.
type CatalogItem struct {
	// ID is the provider-assigned track identifier.
	ID string `json:"id"`

	// Title is the track title.
	Title string `json:"title"`

	// Artist is the primary artist name.
	Artist string `json:"artist,omitempty"`

	// Genre is the category tag the item was fetched under.
	Genre string `json:"genre"`

	// Features is the normalized feature vector.
	Features FeatureVector `json:"features"`
}

// Interaction is a single feedback event. It is ephemeral input: the
// feedback processor folds it into the genre preference and discards it.
type Interaction struct {
	// UserID is the authenticated user identifier.
	UserID string `json:"user_id"`

	// ItemID is the track the feedback applies to.
	ItemID string `json:"item_id"`

	// Genre is the category the feedback applies to.
	Genre string `json:"genre"`

	// Type is the interaction type.
	Type InteractionType `json:"type"`

	// ListenDuration is how long the user listened. Zero when unknown.
	ListenDuration time.Duration `json:"listen_duration,omitempty"`

	// TrackDuration is the full track length. Zero when unknown.
	TrackDuration time.Duration `json:"track_duration,omitempty"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`
}

// CompletionRatio returns listen/track clamped to [0,1] and whether
// duration data was present.
func (i Interaction) CompletionRatio() (float64, bool) {
	if i.ListenDuration <= 0 || i.TrackDuration <= 0 {
		return 0, false
	}
	ratio := float64(i.ListenDuration) / float64(i.TrackDuration)
	if ratio > 1 {
		ratio = 1
	}
	return ratio, true
}

// GenrePreference is the durable per-(user, genre) learning aggregate.
// PreferenceScore is derived from the counters; RewardSum keeps the running
// reward total so the average survives undo operations exactly.
type GenrePreference struct {
	UserID string `json:"user_id"`
	Genre  string `json:"genre"`

	// PreferenceScore is the learned score in [0,1]. Default 0.5.
	PreferenceScore float64 `json:"preference_score"`

	// RewardSum is the running sum of applied rewards.
	RewardSum float64 `json:"reward_sum"`

	// InteractionCount is the total number of folded interactions.
	InteractionCount int `json:"interaction_count"`

	// PositiveCount counts like/play/save/repeat interactions.
	PositiveCount int `json:"positive_count"`

	// NegativeCount counts dislike/skip interactions.
	NegativeCount int `json:"negative_count"`
}

// DefaultGenrePreference returns the record used for a (user, genre) pair
// with no recorded interactions.
func DefaultGenrePreference(userID, genre string) GenrePreference {
	return GenrePreference{
		UserID:          userID,
		Genre:           genre,
		PreferenceScore: 0.5,
	}
}

// AvgReward returns the running mean reward, zero when no interactions.
func (p GenrePreference) AvgReward() float64 {
	if p.InteractionCount == 0 {
		return 0
	}
	return p.RewardSum / float64(p.InteractionCount)
}

// NeutralCount returns interactions that were neither positive nor negative.
func (p GenrePreference) NeutralCount() int {
	return p.InteractionCount - p.PositiveCount - p.NegativeCount
}

// PreferenceDelta is one atomic adjustment to a genre preference.
// CountDelta is +1 for a new interaction and -1 for a toggle-off undo.
type PreferenceDelta struct {
	Reward        float64
	CountDelta    int
	PositiveDelta int
	NegativeDelta int
}

// Apply folds the delta into the preference and re-derives the score:
//
//	score = clamp(0.5 + (positive-negative)/count * 0.3, 0, 1)
//
// Apply is a pure function; persistence and serialization are the store's
// concern.
func (p GenrePreference) Apply(d PreferenceDelta) GenrePreference {
	p.InteractionCount += d.CountDelta
	p.PositiveCount += d.PositiveDelta
	p.NegativeCount += d.NegativeDelta
	p.RewardSum += d.Reward

	if p.InteractionCount <= 0 {
		p.InteractionCount = 0
		p.RewardSum = 0
		p.PreferenceScore = 0.5
		return p
	}

	balance := float64(p.PositiveCount-p.NegativeCount) / float64(p.InteractionCount)
	p.PreferenceScore = clamp01(0.5 + balance*0.3)
	return p
}

// clamp01 clamps v into [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ScoredTrack is a ranked catalog item with its score breakdown.
type ScoredTrack struct {
	Item CatalogItem `json:"item"`

	// PersonalityMatch is the trait-feature similarity in [0,1].
	PersonalityMatch float64 `json:"personality_match"`

	// PreferenceScore is the learned genre preference at ranking time.
	PreferenceScore float64 `json:"preference_score"`

	// CombinedScore is the final epsilon-greedy score used for ordering.
	CombinedScore float64 `json:"combined_score"`
}

// RecommendationSet is one consistent ranking pass for a user. It is
// superseded wholesale on regeneration, never partially updated.
type RecommendationSet struct {
	UserID      string                   `json:"user_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	ExpiresAt   time.Time                `json:"expires_at"`
	Genres      map[string][]ScoredTrack `json:"genres"`
}

// RefreshKind tags how a recommendation request wants the cached set
// treated.
type RefreshKind int

const (
	// RefreshNone serves the cached set when fresh and regenerates on miss.
	RefreshNone RefreshKind = iota
	// RefreshManual is a user-initiated regeneration, subject to the daily
	// manual quota.
	RefreshManual
	// RefreshAuto is a scheduled-window regeneration, granted at most once
	// per window per day.
	RefreshAuto
)

// String returns a human-readable refresh kind.
func (k RefreshKind) String() string {
	switch k {
	case RefreshManual:
		return "manual"
	case RefreshAuto:
		return "auto"
	default:
		return "none"
	}
}

// ParseRefreshKind parses the refresh query parameter. An empty string is
// RefreshNone; anything unrecognized is an error.
func ParseRefreshKind(s string) (RefreshKind, error) {
	switch s {
	case "", "none":
		return RefreshNone, nil
	case "manual":
		return RefreshManual, nil
	case "auto":
		return RefreshAuto, nil
	default:
		return 0, ErrInvalidRefreshKind
	}
}

// FeedbackMark records the active toggle state for a (user, item) pair:
// which toggleable type is on and the reward that was applied, so that
// toggle-off can reverse it exactly.
type FeedbackMark struct {
	Type   InteractionType `json:"type"`
	Reward float64         `json:"reward"`
	Genre  string          `json:"genre"`
}
