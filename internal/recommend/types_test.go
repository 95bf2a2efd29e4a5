// Attune - Personality-Aware Music Recommendation Engine
// Copyright 2026 Soundhaus Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundhaus/attune

package recommend

import (
	"math"
	"testing"
)

func TestApply_SingleLike(t *testing.T) {
	p := DefaultGenrePreference("u1", "jazz")
	p = p.Apply(DeltaFor(InteractionLike, 1.0))

	if p.InteractionCount != 1 || p.PositiveCount != 1 || p.NegativeCount != 0 {
		t.Errorf("counters = %d/%d/%d, want 1/1/0", p.InteractionCount, p.PositiveCount, p.NegativeCount)
	}
	if math.Abs(p.PreferenceScore-0.8) > 1e-9 {
		t.Errorf("PreferenceScore = %f, want 0.8", p.PreferenceScore)
	}
	if p.RewardSum != 1.0 {
		t.Errorf("RewardSum = %f, want 1.0", p.RewardSum)
	}
}

func TestApply_LikeThenDislikeIsNeutral(t *testing.T) {
	p := DefaultGenrePreference("u1", "jazz")
	p = p.Apply(DeltaFor(InteractionLike, 1.0))
	p = p.Apply(DeltaFor(InteractionDislike, -1.0))

	if p.InteractionCount != 2 || p.PositiveCount != 1 || p.NegativeCount != 1 {
		t.Errorf("counters = %d/%d/%d, want 2/1/1", p.InteractionCount, p.PositiveCount, p.NegativeCount)
	}
	if math.Abs(p.PreferenceScore-0.5) > 1e-9 {
		t.Errorf("PreferenceScore = %f, want 0.5", p.PreferenceScore)
	}
	if math.Abs(p.RewardSum) > 1e-9 {
		t.Errorf("RewardSum = %f, want 0", p.RewardSum)
	}
}

func TestApply_ScoreStaysBounded(t *testing.T) {
	p := DefaultGenrePreference("u1", "metal")
	for i := 0; i < 50; i++ {
		p = p.Apply(DeltaFor(InteractionDislike, -1.0))
	}
	if p.PreferenceScore < 0 || p.PreferenceScore > 1 {
		t.Fatalf("PreferenceScore = %f out of [0,1]", p.PreferenceScore)
	}
	if math.Abs(p.PreferenceScore-0.2) > 1e-9 {
		t.Errorf("all-negative PreferenceScore = %f, want 0.2", p.PreferenceScore)
	}

	q := DefaultGenrePreference("u1", "jazz")
	for i := 0; i < 50; i++ {
		q = q.Apply(DeltaFor(InteractionLike, 1.0))
	}
	if math.Abs(q.PreferenceScore-0.8) > 1e-9 {
		t.Errorf("all-positive PreferenceScore = %f, want 0.8", q.PreferenceScore)
	}
}

func TestApply_UndoRestoresExactState(t *testing.T) {
	p := DefaultGenrePreference("u1", "jazz")
	p = p.Apply(DeltaFor(InteractionPlay, 0.6))

	before := p
	p = p.Apply(DeltaFor(InteractionLike, 1.0))
	p = p.Apply(UndoDelta(InteractionLike, 1.0))

	if p != before {
		t.Errorf("undo left %+v, want %+v", p, before)
	}
}

func TestApply_UndoLastInteractionResetsDefaults(t *testing.T) {
	p := DefaultGenrePreference("u1", "jazz")
	p = p.Apply(DeltaFor(InteractionSave, 1.5))
	p = p.Apply(UndoDelta(InteractionSave, 1.5))

	want := DefaultGenrePreference("u1", "jazz")
	if p != want {
		t.Errorf("after full undo got %+v, want %+v", p, want)
	}
}

func TestApply_NeutralInteractionsDoNotMoveScore(t *testing.T) {
	p := DefaultGenrePreference("u1", "jazz")
	p = p.Apply(DeltaFor(InteractionShare, 1.3))
	p = p.Apply(DeltaFor(InteractionAddToPlaylist, 1.8))

	if p.NeutralCount() != 2 {
		t.Errorf("NeutralCount = %d, want 2", p.NeutralCount())
	}
	if math.Abs(p.PreferenceScore-0.5) > 1e-9 {
		t.Errorf("PreferenceScore = %f, want 0.5", p.PreferenceScore)
	}
}

func TestAvgReward(t *testing.T) {
	p := DefaultGenrePreference("u1", "jazz")
	if p.AvgReward() != 0 {
		t.Errorf("empty AvgReward = %f, want 0", p.AvgReward())
	}

	p = p.Apply(DeltaFor(InteractionLike, 1.0))
	p = p.Apply(DeltaFor(InteractionSave, 1.5))
	if math.Abs(p.AvgReward()-1.25) > 1e-9 {
		t.Errorf("AvgReward = %f, want 1.25", p.AvgReward())
	}
}

func TestCompletionRatio(t *testing.T) {
	tests := []struct {
		name        string
		i           Interaction
		want        float64
		wantPresent bool
	}{
		{"no durations", Interaction{}, 0, false},
		{"track only", Interaction{TrackDuration: 100}, 0, false},
		{"half", Interaction{ListenDuration: 50, TrackDuration: 100}, 0.5, true},
		{"overrun clamps", Interaction{ListenDuration: 300, TrackDuration: 100}, 1.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present := tt.i.CompletionRatio()
			if present != tt.wantPresent || math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CompletionRatio() = (%f, %v), want (%f, %v)", got, present, tt.want, tt.wantPresent)
			}
		})
	}
}

func TestToggleable(t *testing.T) {
	toggleable := map[InteractionType]bool{
		InteractionLike:          true,
		InteractionDislike:       true,
		InteractionSave:          true,
		InteractionAddToPlaylist: true,
		InteractionPlay:          false,
		InteractionSkip:          false,
		InteractionRepeat:        false,
		InteractionShare:         false,
	}
	for typ, want := range toggleable {
		if typ.Toggleable() != want {
			t.Errorf("%s.Toggleable() = %v, want %v", typ, typ.Toggleable(), want)
		}
	}
}

func TestParseRefreshKind(t *testing.T) {
	tests := []struct {
		in      string
		want    RefreshKind
		wantErr bool
	}{
		{"", RefreshNone, false},
		{"none", RefreshNone, false},
		{"manual", RefreshManual, false},
		{"auto", RefreshAuto, false},
		{"force", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseRefreshKind(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRefreshKind(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseRefreshKind(%q) = (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
}
