// Package domain holds the lead entity and its invariants.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrLeadNotFound = errors.New("lead not found")

// Lead is the structured record a conversation builds up about one
// prospect. Attribute columns mirror the extractable profile fields;
// contact details are captured separately and never flow through the
// extraction path.
type Lead struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name,omitempty"`
	Company         string    `json:"company,omitempty"`
	Role            string    `json:"role,omitempty"`
	Need            string    `json:"need,omitempty"`
	PainPoint       string    `json:"painPoint,omitempty"`
	Budget          string    `json:"budget,omitempty"`
	Timeline        string    `json:"timeline,omitempty"`
	ProductInterest string    `json:"productInterest,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Stage           string    `json:"stage"`
	Qualified       bool      `json:"qualified"`
	Summary         string    `json:"summary,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the attribute values a conversation turn
// produced. Empty strings mean "no change".
type ProfileUpdate struct {
	Name            string
	Company         string
	Role            string
	Need            string
	PainPoint       string
	Budget          string
	Timeline        string
	ProductInterest string
	Stage           string
}

// Apply merges non-empty update values into the lead.
func (l *Lead) Apply(u ProfileUpdate) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&l.Name, u.Name)
	set(&l.Company, u.Company)
	set(&l.Role, u.Role)
	set(&l.Need, u.Need)
	set(&l.PainPoint, u.PainPoint)
	set(&l.Budget, u.Budget)
	set(&l.Timeline, u.Timeline)
	set(&l.ProductInterest, u.ProductInterest)
	set(&l.Stage, u.Stage)
}

// QualificationComplete reports whether the lead carries every
// attribute the staged flow tries to collect before a proposal.
func (l Lead) QualificationComplete() bool {
	return l.Name != "" && l.Company != "" && l.Need != "" &&
		l.PainPoint != "" && l.Budget != "" && l.Timeline != ""
}
