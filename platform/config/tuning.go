package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the conversation-flow tuning values. Every value has a
// documented default; a YAML file can override any subset.
type Tuning struct {
	// StuckWindow is the number of consecutive user turns without new
	// extracted fields before repetition is considered (default 3).
	StuckWindow int `yaml:"stuck_window"`
	// SimilarityThreshold is the token-overlap ratio above which the last
	// two user turns count as near-duplicates (default 0.8).
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// StageTurnCeiling forces a stalled verdict after this many user turns
	// in a single stage regardless of similarity (default 6).
	StageTurnCeiling int `yaml:"stage_turn_ceiling"`
	// GlobalTurnCeiling ends the conversation outright after this many
	// user turns in total (default 30).
	GlobalTurnCeiling int `yaml:"global_turn_ceiling"`
	// RecentWindow is how many recent turns the engine retains (default 6).
	RecentWindow int `yaml:"recent_window"`
	// ClosingMinTurns is the number of user turns spent in closing before
	// the ending sequence starts (default 2).
	ClosingMinTurns int `yaml:"closing_min_turns"`
	// FarewellPhrases trigger the ending sequence when a user utterance
	// contains one of them.
	FarewellPhrases []string `yaml:"farewell_phrases"`
	// StageGoals overrides the built-in per-stage prompt objective, keyed
	// by template id ("introduction" ... "closing", "ending").
	StageGoals map[string]string `yaml:"stage_goals"`
}

// DefaultTuning returns the built-in tuning values.
func DefaultTuning() Tuning {
	return Tuning{
		StuckWindow:         3,
		SimilarityThreshold: 0.8,
		StageTurnCeiling:    6,
		GlobalTurnCeiling:   30,
		RecentWindow:        6,
		ClosingMinTurns:     2,
		FarewellPhrases: []string{
			"bye",
			"goodbye",
			"not interested",
			"no more questions",
			"talk later",
			"have to go",
			"stop calling",
		},
	}
}

// LoadTuning returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file: %w", err)
	}

	if tuning.StuckWindow < 1 {
		return Tuning{}, fmt.Errorf("stuck_window must be >= 1")
	}
	if tuning.SimilarityThreshold <= 0 || tuning.SimilarityThreshold > 1 {
		return Tuning{}, fmt.Errorf("similarity_threshold must be in (0, 1]")
	}
	if tuning.StageTurnCeiling < 1 || tuning.GlobalTurnCeiling < 1 {
		return Tuning{}, fmt.Errorf("turn ceilings must be >= 1")
	}

	return tuning, nil
}
