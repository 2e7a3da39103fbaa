// Package adapters contains thin glue types that let modules depend on
// each other's behavior through their own interfaces.
package adapters

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadagent_backend/internal/conversation/session"
	"leadagent_backend/internal/scheduler"
)

// ConversationExpiryAdapter exposes the conversation service through
// the scheduler's expiry interface.
type ConversationExpiryAdapter struct {
	svc *session.Service
}

func NewConversationExpiryAdapter(svc *session.Service) *ConversationExpiryAdapter {
	return &ConversationExpiryAdapter{svc: svc}
}

func (a *ConversationExpiryAdapter) Expire(ctx context.Context, conversationID uuid.UUID) error {
	return a.svc.Expire(ctx, conversationID)
}

func (a *ConversationExpiryAdapter) IdleConversations(ctx context.Context, cutoff time.Time, limit int) ([]scheduler.IdleConversation, error) {
	convs, err := a.svc.IdleConversations(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	idle := make([]scheduler.IdleConversation, 0, len(convs))
	for _, c := range convs {
		idle = append(idle, scheduler.IdleConversation{ID: c.ID})
	}
	return idle, nil
}

var _ scheduler.ConversationExpirer = (*ConversationExpiryAdapter)(nil)
