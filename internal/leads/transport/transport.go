// Package transport defines the wire DTOs for the leads API.
package transport

import (
	"leadagent_backend/internal/leads/domain"
)

type UpdateLeadRequest struct {
	Name            *string `json:"name" validate:"omitempty,max=120"`
	Company         *string `json:"company" validate:"omitempty,max=120"`
	Role            *string `json:"role" validate:"omitempty,max=120"`
	Need            *string `json:"need" validate:"omitempty,max=500"`
	PainPoint       *string `json:"painPoint" validate:"omitempty,max=500"`
	Budget          *string `json:"budget" validate:"omitempty,max=120"`
	Timeline        *string `json:"timeline" validate:"omitempty,max=120"`
	ProductInterest *string `json:"productInterest" validate:"omitempty,max=200"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
}

func (r UpdateLeadRequest) ToUpdate() (domain.ProfileUpdate, string, string) {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	update := domain.ProfileUpdate{
		Name:            deref(r.Name),
		Company:         deref(r.Company),
		Role:            deref(r.Role),
		Need:            deref(r.Need),
		PainPoint:       deref(r.PainPoint),
		Budget:          deref(r.Budget),
		Timeline:        deref(r.Timeline),
		ProductInterest: deref(r.ProductInterest),
	}
	return update, deref(r.Email), deref(r.Phone)
}

type ListLeadsResponse struct {
	Items []domain.Lead `json:"items"`
	Count int           `json:"count"`
}
