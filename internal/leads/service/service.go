// Package service contains the lead application logic: persistence
// orchestration, qualification detection and event publication.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"leadagent_backend/internal/events"
	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/leads/repository"
	"leadagent_backend/platform/apperr"
	"leadagent_backend/platform/logger"
)

type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Create opens a fresh lead record at the given stage.
func (s *Service) Create(ctx context.Context, stage string) (domain.Lead, error) {
	lead, err := s.repo.Create(ctx, stage)
	if err != nil {
		s.log.DatabaseError("create lead", err)
		return domain.Lead{}, apperr.Internal("could not create lead").WithOp("leads.Create")
	}
	return lead, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrLeadNotFound) {
			return domain.Lead{}, apperr.NotFound("lead not found").WithOp("leads.Get")
		}
		s.log.DatabaseError("get lead", err)
		return domain.Lead{}, apperr.Internal("could not load lead").WithOp("leads.Get")
	}
	return lead, nil
}

func (s *Service) List(ctx context.Context, limit, offset int, qualifiedOnly bool) ([]domain.Lead, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.repo.List(ctx, limit, offset, qualifiedOnly)
	if err != nil {
		s.log.DatabaseError("list leads", err)
		return nil, apperr.Internal("could not list leads").WithOp("leads.List")
	}
	return items, nil
}

// ApplyProfile merges a conversation turn's attribute update into the
// lead. Crossing the qualification threshold publishes LeadQualified
// exactly once.
func (s *Service) ApplyProfile(ctx context.Context, id uuid.UUID, conversationID uuid.UUID, update domain.ProfileUpdate, summary string) (domain.Lead, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}

	wasQualified := lead.Qualified
	lead.Apply(update)
	if summary != "" {
		lead.Summary = summary
	}
	if !wasQualified && lead.QualificationComplete() {
		lead.Qualified = true
	}

	updated, err := s.repo.Update(ctx, lead)
	if err != nil {
		s.log.DatabaseError("update lead", err)
		return domain.Lead{}, apperr.Internal("could not update lead").WithOp("leads.ApplyProfile")
	}

	if !wasQualified && updated.Qualified {
		s.bus.Publish(ctx, events.LeadQualified{
			BaseEvent:      events.NewBaseEvent(),
			LeadID:         updated.ID,
			ConversationID: conversationID,
			Name:           updated.Name,
			Company:        updated.Company,
			Email:          updated.Email,
			Phone:          updated.Phone,
			Fields:         profileFields(updated),
			Summary:        updated.Summary,
		})
	}
	return updated, nil
}

// CaptureContact stores a detected email address or phone number.
func (s *Service) CaptureContact(ctx context.Context, id uuid.UUID, conversationID uuid.UUID, email, phone string) (domain.Lead, error) {
	if email == "" && phone == "" {
		return s.Get(ctx, id)
	}
	lead, err := s.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if email != "" {
		lead.Email = email
	}
	if phone != "" {
		lead.Phone = phone
	}
	updated, err := s.repo.Update(ctx, lead)
	if err != nil {
		s.log.DatabaseError("update lead contact", err)
		return domain.Lead{}, apperr.Internal("could not update lead").WithOp("leads.CaptureContact")
	}

	s.bus.Publish(ctx, events.LeadContactCaptured{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         updated.ID,
		ConversationID: conversationID,
		Email:          email,
		Phone:          phone,
	})
	return updated, nil
}

// UpdateManual applies an operator edit from the admin API.
func (s *Service) UpdateManual(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate, email, phone string) (domain.Lead, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Apply(update)
	if email != "" {
		lead.Email = email
	}
	if phone != "" {
		lead.Phone = phone
	}
	updated, err := s.repo.Update(ctx, lead)
	if err != nil {
		s.log.DatabaseError("update lead", err)
		return domain.Lead{}, apperr.Internal("could not update lead").WithOp("leads.UpdateManual")
	}
	return updated, nil
}

func profileFields(l domain.Lead) map[string]string {
	fields := map[string]string{
		"name":             l.Name,
		"company":          l.Company,
		"role":             l.Role,
		"need":             l.Need,
		"pain_point":       l.PainPoint,
		"budget":           l.Budget,
		"timeline":         l.Timeline,
		"product_interest": l.ProductInterest,
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}
