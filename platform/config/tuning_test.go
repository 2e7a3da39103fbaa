package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTuningDefaults(t *testing.T) {
	tuning, err := LoadTuning("")
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if tuning.StuckWindow != 3 || tuning.SimilarityThreshold != 0.8 {
		t.Errorf("unexpected defaults: %+v", tuning)
	}
	if len(tuning.FarewellPhrases) == 0 {
		t.Error("expected default farewell phrases")
	}
}

func TestLoadTuningOverridesSubset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	content := []byte("stuck_window: 5\nfarewell_phrases: [adios]\nstage_goals:\n  closing: Book the demo.\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	tuning, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if tuning.StuckWindow != 5 {
		t.Errorf("StuckWindow = %d, want 5", tuning.StuckWindow)
	}
	if tuning.SimilarityThreshold != 0.8 {
		t.Errorf("untouched value changed: %v", tuning.SimilarityThreshold)
	}
	if len(tuning.FarewellPhrases) != 1 || tuning.FarewellPhrases[0] != "adios" {
		t.Errorf("FarewellPhrases = %v", tuning.FarewellPhrases)
	}
	if tuning.StageGoals["closing"] != "Book the demo." {
		t.Errorf("StageGoals = %v", tuning.StageGoals)
	}
}

func TestLoadTuningRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero window", "stuck_window: 0\n"},
		{"threshold above one", "similarity_threshold: 1.5\n"},
		{"zero ceiling", "global_turn_ceiling: 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tuning.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadTuning(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
