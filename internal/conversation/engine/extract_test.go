package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDeterministicPass(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		want      map[FieldKey]string
	}{
		{
			name:      "name and company",
			utterance: "Hi, I'm Jane from Acme Corp",
			want:      map[FieldKey]string{FieldName: "Jane", FieldCompany: "Acme Corp"},
		},
		{
			name:      "budget with cue word",
			utterance: "our budget is 5k for this",
			want:      map[FieldKey]string{FieldBudget: "5k"},
		},
		{
			name:      "bare number without cue is not a budget",
			utterance: "we have 12 people on the team",
			want:      map[FieldKey]string{},
		},
		{
			name:      "currency symbol needs no cue",
			utterance: "we can do $20,000",
			want:      map[FieldKey]string{FieldBudget: "$20,000"},
		},
		{
			name:      "timeline",
			utterance: "we want to roll out within 6 weeks",
			want:      map[FieldKey]string{FieldTimeline: "6 weeks", FieldNeed: "to roll out within 6 weeks"},
		},
		{
			name:      "need clause",
			utterance: "we're looking for a better CRM, nothing fancy",
			want:      map[FieldKey]string{FieldNeed: "a better CRM"},
		},
		{
			name:      "pain point",
			utterance: "honestly we're struggling with manual data entry every day",
			want:      map[FieldKey]string{FieldPainPoint: "manual data entry every day"},
		},
		{
			name:      "product interest",
			utterance: "I'd be interested in the analytics module please",
			want:      map[FieldKey]string{FieldProductInterest: "analytics module please"},
		},
		{
			name:      "nothing extractable",
			utterance: "the weather is nice today",
			want:      map[FieldKey]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deterministicPass(tt.utterance)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("field %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

type stubModelExtractor struct {
	update map[FieldKey]string
	err    error
	missed []FieldKey
	calls  int
}

func (s *stubModelExtractor) Extract(_ context.Context, _ string, missing []FieldKey) (map[FieldKey]string, error) {
	s.calls++
	s.missed = missing
	return s.update, s.err
}

func TestExtractorDeterministicWinsConflicts(t *testing.T) {
	model := &stubModelExtractor{update: map[FieldKey]string{
		FieldName: "Robert",
		FieldRole: "CTO",
	}}
	e := NewExtractor(model, time.Second, nil)

	got := e.Extract(context.Background(), "I'm Jane from Acme", NewLeadProfile())
	if got[FieldName] != "Jane" {
		t.Errorf("name = %q, deterministic value should win", got[FieldName])
	}
	if got[FieldRole] != "CTO" {
		t.Errorf("role = %q, want model value for a field the patterns missed", got[FieldRole])
	}
}

func TestExtractorModelFailureDegrades(t *testing.T) {
	model := &stubModelExtractor{err: errors.New("model unavailable")}
	e := NewExtractor(model, time.Second, nil)

	got := e.Extract(context.Background(), "I'm Jane from Acme", NewLeadProfile())
	if got[FieldName] != "Jane" || got[FieldCompany] != "Acme" {
		t.Errorf("deterministic results lost on model failure: %v", got)
	}
}

func TestExtractorSkipsModelWhenNothingMissing(t *testing.T) {
	model := &stubModelExtractor{}
	e := NewExtractor(model, time.Second, nil)

	p := NewLeadProfile()
	for _, k := range AllFields {
		p.Merge(map[FieldKey]string{k: "known"})
	}
	e.Extract(context.Background(), "anything at all", p)
	if model.calls != 0 {
		t.Errorf("model called %d times with a complete profile", model.calls)
	}
}

func TestExtractorDiscardsUnknownModelKeys(t *testing.T) {
	model := &stubModelExtractor{update: map[FieldKey]string{
		FieldKey("mood"): "cheerful",
		FieldNeed:        "  faster onboarding  ",
	}}
	e := NewExtractor(model, time.Second, nil)

	got := e.Extract(context.Background(), "hello there", NewLeadProfile())
	if _, ok := got[FieldKey("mood")]; ok {
		t.Error("unknown model key survived the merge boundary")
	}
	if got[FieldNeed] != "faster onboarding" {
		t.Errorf("need = %q, want trimmed model value", got[FieldNeed])
	}
}

func TestExtractorWithoutModel(t *testing.T) {
	e := NewExtractor(nil, time.Second, nil)
	got := e.Extract(context.Background(), "I'm Jane", NewLeadProfile())
	if got[FieldName] != "Jane" {
		t.Errorf("name = %q", got[FieldName])
	}
}
