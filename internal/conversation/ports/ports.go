// Package ports declares the collaborator interfaces the conversation
// service depends on. Implementations live under platform/ai and the
// speech adapters; the service only sees these contracts.
package ports

import (
	"context"

	"leadagent_backend/internal/conversation/engine"
)

// TextGenerator produces the assistant's next reply from a stage prompt
// and the recent turn history. Implementations must not mutate any
// conversation state; they generate text and nothing else.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt string, history []engine.TurnRecord) (string, error)
}

// Transcriber converts recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// Synthesizer renders reply text as speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioArchiver stores raw conversation audio and returns a storage key.
type AudioArchiver interface {
	Store(ctx context.Context, conversationID string, audio []byte, contentType string) (string, error)
}
