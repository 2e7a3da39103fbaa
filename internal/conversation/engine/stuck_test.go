package engine

import "testing"

func TestTokenSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "what does it cost", "what does it cost", 1},
		{"punctuation and case ignored", "What does it COST?", "what does it cost", 1},
		{"disjoint", "hello there", "completely different words", 0},
		{"both empty", "", "", 1},
		{"one empty", "hello", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("TokenSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTokenSimilarityPartialOverlap(t *testing.T) {
	got := TokenSimilarity("how much is it", "how much is the plan")
	if got <= 0 || got >= 1 {
		t.Errorf("expected partial overlap in (0,1), got %v", got)
	}
}

func TestStuckDetectorRepetitionWindow(t *testing.T) {
	d := NewStuckDetector(3, 0.8, 10)

	if d.Observe("how much does it cost", false) {
		t.Fatal("stalled after one turn")
	}
	if d.Observe("no idea what you mean", false) {
		t.Fatal("stalled after two dissimilar turns")
	}
	// Third turn without progress, near-identical to the previous one.
	if !d.Observe("no idea what you mean?", false) {
		t.Error("expected stall after window exhausted with repetition")
	}
}

func TestStuckDetectorProgressResetsWindow(t *testing.T) {
	d := NewStuckDetector(3, 0.8, 10)

	d.Observe("same thing again", false)
	d.Observe("same thing again", false)
	d.Observe("my name is Jane", true)
	if d.Observe("same thing again", false) {
		t.Error("window should have reset on extraction progress")
	}
}

func TestStuckDetectorRepetitionAloneIsNotEnough(t *testing.T) {
	d := NewStuckDetector(3, 0.8, 10)

	d.Observe("tell me the price", true)
	// Identical turns, but the no-progress window is not exhausted yet.
	if d.Observe("tell me the price", true) {
		t.Error("stalled with progress still being made")
	}
}

func TestStuckDetectorStageCeiling(t *testing.T) {
	d := NewStuckDetector(3, 0.8, 4)

	turns := []string{"alpha one", "beta two", "gamma three"}
	for _, turn := range turns {
		if d.Observe(turn, true) {
			t.Fatalf("stalled before ceiling on %q", turn)
		}
	}
	// Fourth turn hits the ceiling even though every turn progressed.
	if !d.Observe("delta four", true) {
		t.Error("expected stall at the stage turn ceiling")
	}
}

func TestStuckDetectorStageChangeResets(t *testing.T) {
	d := NewStuckDetector(3, 0.8, 3)

	d.Observe("one", false)
	d.Observe("two", false)
	d.StageChanged()
	if d.Observe("three", false) {
		t.Error("ceiling counter survived a stage change")
	}
}
