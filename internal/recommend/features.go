// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

// Tempo and popularity normalization ranges. Audio analysis providers
// report tempo in BPM and popularity on a 0-100 scale; every other
// dimension already arrives in [0,1].
const (
	tempoMin = 40.0
	tempoMax = 200.0

	popularityMax = 100.0
)

// TrackAttributes is the raw attribute set a catalog provider reports for
// a track, before normalization.
type TrackAttributes struct {
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Danceability     float64 `json:"danceability"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`

	// TempoBPM is the raw tempo in beats per minute.
	TempoBPM float64 `json:"tempo_bpm"`

	// Popularity is the raw popularity on a 0-100 scale.
	Popularity float64 `json:"popularity"`
}

// NormalizeTempo maps a BPM value onto [0,1] over the 40-200 BPM range.
func NormalizeTempo(bpm float64) float64 {
	return clamp01((bpm - tempoMin) / (tempoMax - tempoMin))
}

// NormalizePopularity maps a 0-100 popularity onto [0,1].
func NormalizePopularity(p float64) float64 {
	return clamp01(p / popularityMax)
}

// AdaptFeatures normalizes raw track attributes into a FeatureVector with
// every dimension clamped to [0,1].
func AdaptFeatures(a TrackAttributes) FeatureVector {
	return FeatureVector{
		Energy:           clamp01(a.Energy),
		Valence:          clamp01(a.Valence),
		Danceability:     clamp01(a.Danceability),
		Acousticness:     clamp01(a.Acousticness),
		Instrumentalness: clamp01(a.Instrumentalness),
		Tempo:            NormalizeTempo(a.TempoBPM),
		Popularity:       NormalizePopularity(a.Popularity),
	}
}

// Clamp returns a copy of the vector with every dimension clamped to [0,1].
// Catalog responses are not trusted to be pre-normalized.
func (f FeatureVector) Clamp() FeatureVector {
	return FeatureVector{
		Energy:           clamp01(f.Energy),
		Valence:          clamp01(f.Valence),
		Danceability:     clamp01(f.Danceability),
		Acousticness:     clamp01(f.Acousticness),
		Instrumentalness: clamp01(f.Instrumentalness),
		Tempo:            clamp01(f.Tempo),
		Popularity:       clamp01(f.Popularity),
	}
}
