package session

import (
	"strings"
	"testing"

	"leadagent_backend/internal/conversation/engine"
)

func TestBuildSystemPromptIncludesProfileAndMissingFields(t *testing.T) {
	profile := engine.NewLeadProfile()
	profile.Fields[engine.FieldName] = "Jane Smith"
	profile.Fields[engine.FieldCompany] = "Acme Corp"

	prompt := BuildSystemPrompt(engine.PromptContext{
		TemplateID:    "needs_identification",
		Stage:         engine.StageNeedsIdentification,
		Profile:       profile,
		MissingFields: []engine.FieldKey{engine.FieldNeed, engine.FieldPainPoint},
	}, nil)

	for _, want := range []string{"Jane Smith", "Acme Corp", "need", "pain point"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "not landing") {
		t.Error("forced note present on a natural turn")
	}
}

func TestBuildSystemPromptForcedNote(t *testing.T) {
	prompt := BuildSystemPrompt(engine.PromptContext{
		TemplateID: "proposal",
		Stage:      engine.StageProposal,
		Profile:    engine.NewLeadProfile(),
		Forced:     true,
	}, nil)
	if !strings.Contains(prompt, "not landing") {
		t.Errorf("expected forced note in prompt:\n%s", prompt)
	}
}

func TestBuildSystemPromptOverridesAndUnknownTemplate(t *testing.T) {
	overrides := map[string]string{"closing": "Book the demo."}

	prompt := BuildSystemPrompt(engine.PromptContext{
		TemplateID: "closing",
		Stage:      engine.StageClosing,
		Profile:    engine.NewLeadProfile(),
	}, overrides)
	if !strings.Contains(prompt, "Book the demo.") {
		t.Errorf("override not applied:\n%s", prompt)
	}

	prompt = BuildSystemPrompt(engine.PromptContext{
		TemplateID: "no-such-template",
		Profile:    engine.NewLeadProfile(),
	}, overrides)
	if !strings.Contains(prompt, "say goodbye") {
		t.Errorf("unknown template should fall back to the ending goal:\n%s", prompt)
	}
}

func TestBuildSummaryPromptListsCapturedAttributes(t *testing.T) {
	profile := engine.NewLeadProfile()
	profile.Fields[engine.FieldBudget] = "$10k"
	profile.Fields[engine.FieldTimeline] = "2 months"

	prompt := BuildSummaryPrompt(profile)
	if !strings.Contains(prompt, "$10k") || !strings.Contains(prompt, "2 months") {
		t.Errorf("summary prompt missing captured attributes:\n%s", prompt)
	}
}
