// Package domain holds the conversation entities.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationEnded    = errors.New("conversation already ended")
)

const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

const (
	ChannelText  = "text"
	ChannelVoice = "voice"
)

// Conversation is one session between a prospect and the assistant.
type Conversation struct {
	ID             uuid.UUID  `json:"id"`
	LeadID         uuid.UUID  `json:"leadId"`
	Channel        string     `json:"channel"`
	Status         string     `json:"status"`
	EndReason      string     `json:"endReason,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	LastActivityAt time.Time  `json:"lastActivityAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
}

// Message is one persisted turn of a conversation.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	Role           string    `json:"role"`
	Text           string    `json:"text"`
	Stage          string    `json:"stage"`
	AudioKey       string    `json:"audioKey,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
