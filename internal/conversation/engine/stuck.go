package engine

import "strings"

// StuckDetector decides when a stage has stalled and a forced advance is
// warranted. Two independent signals trigger it:
//
//   - no user turn has produced a new profile field for a full window
//     AND the last two user turns are near-duplicates of each other
//   - the conversation has spent more user turns in the current stage
//     than the per-stage ceiling allows
//
// Counters reset when extraction makes progress or the stage changes.
type StuckDetector struct {
	window       int
	threshold    float64
	stageCeiling int

	noProgress int
	stageTurns int
	prevText   string
	lastText   string
}

func NewStuckDetector(window int, threshold float64, stageCeiling int) *StuckDetector {
	return &StuckDetector{
		window:       window,
		threshold:    threshold,
		stageCeiling: stageCeiling,
	}
}

// Observe records one user turn and reports whether the stage is now
// considered stalled. progressed is true when the turn's extraction
// applied at least one new field.
func (d *StuckDetector) Observe(text string, progressed bool) bool {
	d.prevText, d.lastText = d.lastText, text
	d.stageTurns++
	if progressed {
		d.noProgress = 0
	} else {
		d.noProgress++
	}

	if d.stageTurns >= d.stageCeiling {
		return true
	}
	if d.noProgress >= d.window && d.prevText != "" &&
		TokenSimilarity(d.prevText, d.lastText) >= d.threshold {
		return true
	}
	return false
}

// StageChanged resets the per-stage counters. The turn texts are kept;
// repetition across a stage boundary is still repetition.
func (d *StuckDetector) StageChanged() {
	d.noProgress = 0
	d.stageTurns = 0
}

// TokenSimilarity returns the Jaccard similarity of the lowercased token
// sets of a and b, in [0, 1]. Two empty strings are fully similar.
func TokenSimilarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,!?;:'\"()")
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}
