// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

// traitFeatureWeight associates one personality trait with one audio
// feature dimension at a fixed-sign weight. The score is the weighted sum
// of trait*feature products, affinely rescaled into [0,1].
//
// The mapping follows the usual trait correlations in music-preference
// research:
// extraverts toward energetic danceable tracks, open listeners toward
// acoustic and instrumental material, high neuroticism away from
// high-valence tracks. Only the signs are load-bearing; the magnitudes
// shape the blend.
type traitFeatureWeight struct {
	trait   string
	feature string
	weight  float64

	traitValue   func(PersonalityProfile) float64
	featureValue func(FeatureVector) float64
}

// traitWeights is the fixed trait-to-feature weight table. Weights never
// change sign: monotonicity of Match depends on it.
var traitWeights = []traitFeatureWeight{
	{
		trait: "openness", feature: "acousticness", weight: 1.0,
		traitValue:   func(p PersonalityProfile) float64 { return p.Openness },
		featureValue: func(f FeatureVector) float64 { return f.Acousticness },
	},
	{
		trait: "openness", feature: "instrumentalness", weight: 0.6,
		traitValue:   func(p PersonalityProfile) float64 { return p.Openness },
		featureValue: func(f FeatureVector) float64 { return f.Instrumentalness },
	},
	{
		trait: "extraversion", feature: "energy", weight: 1.0,
		traitValue:   func(p PersonalityProfile) float64 { return p.Extraversion },
		featureValue: func(f FeatureVector) float64 { return f.Energy },
	},
	{
		trait: "extraversion", feature: "danceability", weight: 0.8,
		traitValue:   func(p PersonalityProfile) float64 { return p.Extraversion },
		featureValue: func(f FeatureVector) float64 { return f.Danceability },
	},
	{
		trait: "extraversion", feature: "valence", weight: 0.5,
		traitValue:   func(p PersonalityProfile) float64 { return p.Extraversion },
		featureValue: func(f FeatureVector) float64 { return f.Valence },
	},
	{
		trait: "conscientiousness", feature: "energy", weight: -0.5,
		traitValue:   func(p PersonalityProfile) float64 { return p.Conscientiousness },
		featureValue: func(f FeatureVector) float64 { return f.Energy },
	},
	{
		trait: "agreeableness", feature: "valence", weight: 0.4,
		traitValue:   func(p PersonalityProfile) float64 { return p.Agreeableness },
		featureValue: func(f FeatureVector) float64 { return f.Valence },
	},
	{
		trait: "agreeableness", feature: "acousticness", weight: 0.3,
		traitValue:   func(p PersonalityProfile) float64 { return p.Agreeableness },
		featureValue: func(f FeatureVector) float64 { return f.Acousticness },
	},
	{
		trait: "neuroticism", feature: "valence", weight: -0.8,
		traitValue:   func(p PersonalityProfile) float64 { return p.Neuroticism },
		featureValue: func(f FeatureVector) float64 { return f.Valence },
	},
}

// matchRawMin and matchRawMax are the attainable bounds of the raw weighted
// sum, derived from the weight table so the affine rescale stays consistent
// with it.
var matchRawMin, matchRawMax = matchBounds()

func matchBounds() (lo, hi float64) {
	for _, w := range traitWeights {
		if w.weight > 0 {
			hi += w.weight
		} else {
			lo += w.weight
		}
	}
	return lo, hi
}

// Match scores a catalog item against a personality profile.
//
// The score is the weighted sum of trait*feature products over the fixed
// weight table, rescaled into [0,1]. It is deterministic, side-effect free,
// and monotonic: raising a trait that is positively weighted for a feature
// never lowers the score while that feature value rises, all else held
// fixed.
func Match(profile PersonalityProfile, item CatalogItem) float64 {
	raw := 0.0
	for _, w := range traitWeights {
		raw += w.weight * w.traitValue(profile) * w.featureValue(item.Features)
	}
	return clamp01((raw - matchRawMin) / (matchRawMax - matchRawMin))
}
