package engine

// FieldKey identifies one structured lead attribute the engine extracts
// from conversation turns. The set of keys is closed; unknown keys from
// a model response are discarded at the merge boundary.
type FieldKey string

const (
	FieldName            FieldKey = "name"
	FieldCompany         FieldKey = "company"
	FieldRole            FieldKey = "role"
	FieldNeed            FieldKey = "need"
	FieldPainPoint       FieldKey = "pain_point"
	FieldBudget          FieldKey = "budget"
	FieldTimeline        FieldKey = "timeline"
	FieldProductInterest FieldKey = "product_interest"
)

// AllFields lists every extractable field in a stable order.
var AllFields = []FieldKey{
	FieldName,
	FieldCompany,
	FieldRole,
	FieldNeed,
	FieldPainPoint,
	FieldBudget,
	FieldTimeline,
	FieldProductInterest,
}

// Valid reports whether k is one of the known field keys.
func (k FieldKey) Valid() bool {
	for _, f := range AllFields {
		if f == k {
			return true
		}
	}
	return false
}

// LeadProfile accumulates the structured attributes learned about the
// prospect over the course of a conversation.
type LeadProfile struct {
	Fields  map[FieldKey]string `json:"fields"`
	Summary string              `json:"summary,omitempty"`
}

// NewLeadProfile returns an empty profile ready for merging.
func NewLeadProfile() LeadProfile {
	return LeadProfile{Fields: make(map[FieldKey]string)}
}

// Get returns the stored value for k, or the empty string.
func (p LeadProfile) Get(k FieldKey) string {
	return p.Fields[k]
}

// Has reports whether k has a non-empty value.
func (p LeadProfile) Has(k FieldKey) bool {
	return p.Fields[k] != ""
}

// Missing returns, in stable order, the subset of keys that have no
// value yet.
func (p LeadProfile) Missing(keys []FieldKey) []FieldKey {
	var missing []FieldKey
	for _, k := range keys {
		if !p.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Merge applies an extraction update to the profile. Empty values and
// unknown keys are skipped; a non-empty value always overwrites, so the
// most recent statement wins. It returns the keys whose stored value
// actually changed.
func (p *LeadProfile) Merge(update map[FieldKey]string) []FieldKey {
	if p.Fields == nil {
		p.Fields = make(map[FieldKey]string)
	}
	var applied []FieldKey
	for _, k := range AllFields {
		v, ok := update[k]
		if !ok || v == "" {
			continue
		}
		if p.Fields[k] == v {
			continue
		}
		p.Fields[k] = v
		applied = append(applied, k)
	}
	return applied
}

// Clone returns a deep copy so callers can hold a snapshot without
// aliasing the engine's live map.
func (p LeadProfile) Clone() LeadProfile {
	out := LeadProfile{
		Fields:  make(map[FieldKey]string, len(p.Fields)),
		Summary: p.Summary,
	}
	for k, v := range p.Fields {
		out.Fields[k] = v
	}
	return out
}

// Complete reports whether every key in keys has a value.
func (p LeadProfile) Complete(keys []FieldKey) bool {
	for _, k := range keys {
		if !p.Has(k) {
			return false
		}
	}
	return true
}
