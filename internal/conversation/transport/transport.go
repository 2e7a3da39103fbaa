// Package transport defines the wire DTOs for the conversation API.
package transport

import (
	"encoding/base64"

	"github.com/google/uuid"

	"leadagent_backend/internal/conversation/domain"
)

type StartConversationRequest struct {
	Channel string `json:"channel" validate:"omitempty,oneof=text voice"`
}

type StartConversationResponse struct {
	ID       uuid.UUID `json:"id"`
	LeadID   uuid.UUID `json:"leadId"`
	Channel  string    `json:"channel"`
	Greeting string    `json:"greeting"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type TurnResponse struct {
	ConversationID uuid.UUID         `json:"conversationId"`
	Reply          string            `json:"reply"`
	ReplyAudio     string            `json:"replyAudio,omitempty"` // base64
	Transcript     string            `json:"transcript,omitempty"`
	Stage          string            `json:"stage"`
	Advanced       bool              `json:"advanced"`
	Forced         bool              `json:"forced"`
	Ending         bool              `json:"ending"`
	Profile        map[string]string `json:"profile"`
}

func EncodeAudio(audio []byte) string {
	if len(audio) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(audio)
}

type EndConversationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=64"`
}

type MessagesResponse struct {
	Items []domain.Message `json:"items"`
	Count int              `json:"count"`
}
