package engine

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func newTestOrchestrator(cfg Config) *Orchestrator {
	return New(cfg, NewExtractor(nil, time.Second, nil), nil)
}

func process(t *testing.T, o *Orchestrator, utterance string) Result {
	t.Helper()
	res, err := o.ProcessMessage(context.Background(), utterance)
	if err != nil {
		t.Fatalf("ProcessMessage(%q): %v", utterance, err)
	}
	return res
}

func TestHappyPathThroughAllStages(t *testing.T) {
	o := newTestOrchestrator(Config{})

	res := process(t, o, "Hi, I'm Jane Smith from Acme Corp")
	if !res.Advanced || res.Forced || res.Stage != StageNeedsIdentification {
		t.Fatalf("after introduction: %+v", res)
	}
	if res.Profile.Get(FieldName) != "Jane Smith" || res.Profile.Get(FieldCompany) != "Acme Corp" {
		t.Fatalf("profile = %v", res.Profile.Fields)
	}

	res = process(t, o, "we're looking for a faster CRM, and struggling with spreadsheets every week")
	if !res.Advanced || res.Stage != StageQualification {
		t.Fatalf("after needs identification: %+v", res)
	}

	res = process(t, o, "our budget is $10k and we need it within 2 months")
	if !res.Advanced || res.Stage != StageProposal {
		t.Fatalf("after qualification: %+v", res)
	}
	if res.Profile.Get(FieldBudget) != "$10k" || res.Profile.Get(FieldTimeline) != "2 months" {
		t.Fatalf("profile = %v", res.Profile.Fields)
	}

	// Proposal requires two turns in stage even with the field present.
	res = process(t, o, "I'd be interested in the premium plan")
	if res.Advanced {
		t.Fatalf("proposal advanced below its turn floor: %+v", res)
	}
	res = process(t, o, "yes that works for us")
	if !res.Advanced || res.Stage != StageClosing {
		t.Fatalf("after proposal: %+v", res)
	}

	// Closing winds down after its turn floor and terminates the flow.
	res = process(t, o, "great, send over the contract")
	if res.Advanced || res.Ending {
		t.Fatalf("closing advanced below its turn floor: %+v", res)
	}
	res = process(t, o, "perfect, we will sign this week")
	if !res.Advanced || !res.Ending || res.Stage != StageEnded {
		t.Fatalf("closing did not terminate: %+v", res)
	}
	if res.Forced {
		t.Error("natural closing reported as forced")
	}
	if res.EndCause != EndCauseCompleted {
		t.Errorf("EndCause = %q, want %q", res.EndCause, EndCauseCompleted)
	}
}

func TestForcedAdvanceOnStall(t *testing.T) {
	o := newTestOrchestrator(Config{})

	process(t, o, "blah blah blah")
	process(t, o, "blah blah blah")
	res := process(t, o, "blah blah blah")
	if !res.Advanced || !res.Forced {
		t.Fatalf("expected forced advance after repeated no-progress turns: %+v", res)
	}
	if res.Stage != StageNeedsIdentification {
		t.Errorf("stage = %s", res.Stage)
	}
	if !res.Prompt.Forced {
		t.Error("prompt context does not carry the forced flag")
	}
}

func TestForcedAdvanceAlwaysTerminates(t *testing.T) {
	o := newTestOrchestrator(Config{GlobalTurnCeiling: 100})

	// A user who never yields a single field still reaches the end.
	for i := 0; i < 99; i++ {
		res := process(t, o, "blah blah blah")
		if res.Stage == StageEnded {
			return
		}
	}
	t.Error("conversation never terminated under constant stalling")
}

func TestFarewellEndsFromAnyStage(t *testing.T) {
	o := newTestOrchestrator(Config{})

	res := process(t, o, "sorry, I'm not interested, goodbye")
	if !res.Ending || res.Stage != StageEnded {
		t.Fatalf("farewell did not end the conversation: %+v", res)
	}
	if res.Advanced {
		t.Error("ending jump reported as a stage advance")
	}
	if res.Prompt.TemplateID != TemplateEnding {
		t.Errorf("prompt template = %q, want %q", res.Prompt.TemplateID, TemplateEnding)
	}
	if res.EndCause != EndCauseFarewell {
		t.Errorf("EndCause = %q, want %q", res.EndCause, EndCauseFarewell)
	}
}

func TestPostEndedTurnsOnlyAppendHistory(t *testing.T) {
	o := newTestOrchestrator(Config{})
	process(t, o, "goodbye")

	before := o.Profile()
	res := process(t, o, "my name is Walter White from Gray Matter")
	if !res.Ending || res.Stage != StageEnded {
		t.Fatalf("post-ended turn: %+v", res)
	}
	if !reflect.DeepEqual(res.Profile.Fields, before.Fields) {
		t.Error("extraction ran after the conversation ended")
	}

	recent := o.Recent()
	last := recent[len(recent)-1]
	if last.Role != RoleUser || last.Text != "my name is Walter White from Gray Matter" {
		t.Errorf("history not appended: %+v", last)
	}
}

func TestGlobalTurnCeiling(t *testing.T) {
	o := newTestOrchestrator(Config{GlobalTurnCeiling: 5, StageTurnCeiling: 50, StuckWindow: 50})

	turns := []string{"alpha one", "bravo two", "charlie three", "delta four"}
	for _, turn := range turns {
		if res := process(t, o, turn); res.Ending {
			t.Fatalf("ended before the ceiling on %q", turn)
		}
	}
	res := process(t, o, "echo five")
	if !res.Ending || res.Stage != StageEnded {
		t.Fatalf("global ceiling did not end the conversation: %+v", res)
	}
	if res.EndCause != EndCauseTurnCeiling {
		t.Errorf("EndCause = %q, want %q", res.EndCause, EndCauseTurnCeiling)
	}
	if o.UserTurns() != 5 {
		t.Errorf("UserTurns() = %d, want 5", o.UserTurns())
	}
}

func TestEmptyUtterance(t *testing.T) {
	o := newTestOrchestrator(Config{})
	if _, err := o.ProcessMessage(context.Background(), "   \t  "); !errors.Is(err, ErrEmptyUtterance) {
		t.Errorf("err = %v, want ErrEmptyUtterance", err)
	}
}

func TestClosedSession(t *testing.T) {
	o := newTestOrchestrator(Config{})
	o.Close()
	if _, err := o.ProcessMessage(context.Background(), "hello"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("err = %v, want ErrSessionClosed", err)
	}
}

func TestAdvanceStageStopsAtTerminal(t *testing.T) {
	o := newTestOrchestrator(Config{})

	for i := 0; i < len(stageOrder); i++ {
		if !o.AdvanceStage() {
			t.Fatalf("advance %d refused before terminal", i)
		}
	}
	if o.Stage() != StageEnded {
		t.Fatalf("stage = %s after walking the full order", o.Stage())
	}
	if o.AdvanceStage() {
		t.Error("advance succeeded on an ended conversation")
	}
	if o.Stage() != StageEnded {
		t.Error("stage moved on a refused advance")
	}
}

func TestShouldAdvanceStageDoesNotMutate(t *testing.T) {
	o := newTestOrchestrator(Config{})
	process(t, o, "Hi, I'm Jane from Acme")
	stage := o.Stage()

	o.ShouldAdvanceStage()
	o.ShouldAdvanceStage()
	if o.Stage() != stage {
		t.Error("ShouldAdvanceStage mutated the stage")
	}
}

func TestStartEndingSequenceIdempotent(t *testing.T) {
	o := newTestOrchestrator(Config{})
	o.StartEndingSequence()
	o.StartEndingSequence()
	if o.Stage() != StageEnded {
		t.Errorf("stage = %s", o.Stage())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	o := newTestOrchestrator(Config{})
	process(t, o, "Hi, I'm Jane from Acme")
	o.RecordAssistantTurn("Nice to meet you, Jane. What brings you here?")
	process(t, o, "we're struggling with churn lately")

	raw, err := json.Marshal(o.State())
	if err != nil {
		t.Fatal(err)
	}
	var snap State
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}

	restored := newTestOrchestrator(Config{})
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !reflect.DeepEqual(restored.State(), o.State()) {
		t.Errorf("state diverged after round trip:\n got %+v\nwant %+v", restored.State(), o.State())
	}

	// Both engines must process the next turn identically.
	a := process(t, o, "what else do you need from me")
	b := process(t, restored, "what else do you need from me")
	if a.Stage != b.Stage || a.Advanced != b.Advanced || !reflect.DeepEqual(a.Profile.Fields, b.Profile.Fields) {
		t.Errorf("divergent results after restore:\n got %+v\nwant %+v", b, a)
	}
}

func TestRestoreRejectsCorruptSnapshots(t *testing.T) {
	tests := []struct {
		name string
		snap State
	}{
		{"unknown stage", State{Stage: Stage("negotiation")}},
		{"unknown profile field", State{
			Stage:   StageQualification,
			Profile: LeadProfile{Fields: map[FieldKey]string{"favorite_color": "blue"}},
		}},
		{"negative counter", State{Stage: StageClosing, TotalUserTurns: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(Config{})
			if err := o.Restore(tt.snap); !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("err = %v, want ErrCorruptSnapshot", err)
			}
		})
	}
}

func TestRestoredClosedSessionStaysClosed(t *testing.T) {
	o := newTestOrchestrator(Config{})
	process(t, o, "hello there")
	o.Close()

	restored := newTestOrchestrator(Config{})
	if err := restored.Restore(o.State()); err != nil {
		t.Fatal(err)
	}
	if _, err := restored.ProcessMessage(context.Background(), "hello"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("err = %v, want ErrSessionClosed", err)
	}
}
