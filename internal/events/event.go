// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadagent_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Conversation Domain Events
// =============================================================================

// ConversationStarted is published when a new conversation session opens.
type ConversationStarted struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
	LeadID         uuid.UUID `json:"leadId"`
	Channel        string    `json:"channel"` // "text" or "voice"
}

func (e ConversationStarted) EventName() string { return "conversation.started" }

// StageAdvanced is published when a conversation moves to a new stage,
// whether naturally or by a forced advance.
type StageAdvanced struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
	LeadID         uuid.UUID `json:"leadId"`
	OldStage       string    `json:"oldStage"`
	NewStage       string    `json:"newStage"`
	Forced         bool      `json:"forced"`
	UserTurns      int       `json:"userTurns"`
}

func (e StageAdvanced) EventName() string { return "conversation.stage.advanced" }

// ConversationEnded is published when a conversation reaches its
// terminal stage or is closed explicitly.
type ConversationEnded struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
	LeadID         uuid.UUID `json:"leadId"`
	Reason         string    `json:"reason"` // "completed", "farewell", "turn_ceiling", "requested", "expired"
	UserTurns      int       `json:"userTurns"`
	Summary        string    `json:"summary,omitempty"`
}

func (e ConversationEnded) EventName() string { return "conversation.ended" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadQualified is published when a conversation has filled every
// profile field the qualification stages require. Downstream handlers
// notify the sales inbox.
type LeadQualified struct {
	BaseEvent
	LeadID         uuid.UUID         `json:"leadId"`
	ConversationID uuid.UUID         `json:"conversationId"`
	Name           string            `json:"name,omitempty"`
	Company        string            `json:"company,omitempty"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Fields         map[string]string `json:"fields"`
	Summary        string            `json:"summary,omitempty"`
}

func (e LeadQualified) EventName() string { return "leads.lead.qualified" }

// LeadContactCaptured is published when an email address or phone
// number is detected in a conversation turn and stored on the lead.
type LeadContactCaptured struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	ConversationID uuid.UUID `json:"conversationId"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
}

func (e LeadContactCaptured) EventName() string { return "leads.contact.captured" }
