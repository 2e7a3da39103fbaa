// Package engine implements the conversation stage orchestration engine:
// the state machine that tracks dialogue progress through a fixed sales
// flow, extracts structured lead attributes from free-text turns, detects
// stalled stages and drives a graceful ending sequence.
//
// The engine is pure and synchronous. Its only blocking dependency is the
// optional model-assisted field extraction, which degrades gracefully.
package engine

// Stage is one phase of the fixed five-phase sales conversation flow,
// plus the terminal pseudo-stage Ended. Stages are ordered; advancement
// only moves forward or jumps to Ended.
type Stage string

const (
	StageIntroduction        Stage = "introduction"
	StageNeedsIdentification Stage = "needs_identification"
	StageQualification       Stage = "qualification"
	StageProposal            Stage = "proposal"
	StageClosing             Stage = "closing"
	StageEnded               Stage = "ended"
)

var stageOrder = []Stage{
	StageIntroduction,
	StageNeedsIdentification,
	StageQualification,
	StageProposal,
	StageClosing,
}

// Valid reports whether s is a known stage value.
func (s Stage) Valid() bool {
	if s == StageEnded {
		return true
	}
	return s.index() >= 0
}

// Terminal reports whether s is the terminal pseudo-stage.
func (s Stage) Terminal() bool {
	return s == StageEnded
}

// Next returns the stage that follows s in order. The stage after
// closing is Ended; Ended is its own successor.
func (s Stage) Next() Stage {
	idx := s.index()
	if idx < 0 || idx == len(stageOrder)-1 {
		return StageEnded
	}
	return stageOrder[idx+1]
}

func (s Stage) index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// StageRule describes the advancement contract for one stage: which
// profile fields must be present before a natural advance, which prompt
// template drives response generation, and how many user turns must be
// spent in the stage before it is advance-eligible.
type StageRule struct {
	Required   []FieldKey
	TemplateID string
	MinTurns   int
}

// TemplateEnding identifies the prompt template used for the graceful
// ending sequence instead of a stage-goal template.
const TemplateEnding = "ending"

var stageRules = map[Stage]StageRule{
	StageIntroduction: {
		Required:   []FieldKey{FieldName, FieldCompany},
		TemplateID: "introduction",
		MinTurns:   1,
	},
	StageNeedsIdentification: {
		Required:   []FieldKey{FieldNeed, FieldPainPoint},
		TemplateID: "needs_identification",
		MinTurns:   1,
	},
	StageQualification: {
		Required:   []FieldKey{FieldBudget, FieldTimeline},
		TemplateID: "qualification",
		MinTurns:   1,
	},
	StageProposal: {
		Required:   []FieldKey{FieldProductInterest},
		TemplateID: "proposal",
		MinTurns:   2,
	},
	StageClosing: {
		Required:   nil,
		TemplateID: "closing",
		MinTurns:   2,
	},
}

// RuleFor returns the advancement rule for the given stage. The terminal
// stage has no rule; it maps to the ending template with no requirements.
func RuleFor(stage Stage) StageRule {
	if rule, ok := stageRules[stage]; ok {
		return rule
	}
	return StageRule{TemplateID: TemplateEnding}
}
