package engine

import "testing"

func TestStageNext(t *testing.T) {
	tests := []struct {
		from Stage
		want Stage
	}{
		{StageIntroduction, StageNeedsIdentification},
		{StageNeedsIdentification, StageQualification},
		{StageQualification, StageProposal},
		{StageProposal, StageClosing},
		{StageClosing, StageEnded},
		{StageEnded, StageEnded},
	}
	for _, tt := range tests {
		if got := tt.from.Next(); got != tt.want {
			t.Errorf("Next(%s) = %s, want %s", tt.from, got, tt.want)
		}
	}
}

func TestStageValid(t *testing.T) {
	for _, s := range []Stage{StageIntroduction, StageClosing, StageEnded} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Stage("negotiation").Valid() {
		t.Error("unknown stage reported valid")
	}
}

func TestMergeLastNonEmptyWins(t *testing.T) {
	p := NewLeadProfile()

	applied := p.Merge(map[FieldKey]string{FieldName: "Jane", FieldCompany: ""})
	if len(applied) != 1 || applied[0] != FieldName {
		t.Fatalf("applied = %v, want [name]", applied)
	}
	if p.Get(FieldCompany) != "" {
		t.Error("empty value should not be stored")
	}

	// A later non-empty value overwrites.
	p.Merge(map[FieldKey]string{FieldName: "Jane Doe"})
	if got := p.Get(FieldName); got != "Jane Doe" {
		t.Errorf("name = %q, want %q", got, "Jane Doe")
	}

	// An identical value is not reported as applied.
	if applied := p.Merge(map[FieldKey]string{FieldName: "Jane Doe"}); len(applied) != 0 {
		t.Errorf("identical merge reported applied keys %v", applied)
	}
}

func TestMergeIgnoresUnknownKeys(t *testing.T) {
	p := NewLeadProfile()
	applied := p.Merge(map[FieldKey]string{FieldKey("favorite_color"): "blue"})
	if len(applied) != 0 {
		t.Errorf("unknown key applied: %v", applied)
	}
	if len(p.Fields) != 0 {
		t.Errorf("profile polluted: %v", p.Fields)
	}
}

func TestMissingAndComplete(t *testing.T) {
	p := NewLeadProfile()
	p.Merge(map[FieldKey]string{FieldName: "Jane"})

	required := []FieldKey{FieldName, FieldCompany}
	missing := p.Missing(required)
	if len(missing) != 1 || missing[0] != FieldCompany {
		t.Errorf("missing = %v, want [company]", missing)
	}
	if p.Complete(required) {
		t.Error("profile reported complete with company missing")
	}

	p.Merge(map[FieldKey]string{FieldCompany: "Acme"})
	if !p.Complete(required) {
		t.Error("profile not complete after both fields set")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := NewLeadProfile()
	p.Merge(map[FieldKey]string{FieldName: "Jane"})

	c := p.Clone()
	c.Fields[FieldName] = "Bob"
	if p.Get(FieldName) != "Jane" {
		t.Error("clone aliases the original map")
	}
}
