package llm

import (
	"context"
	"time"

	"leadagent_backend/internal/conversation/engine"
	"leadagent_backend/platform/ai"
)

// Generator adapts a Backend to the TextGenerator port, mapping the
// engine's turn records onto chat messages.
type Generator struct {
	backend Backend
	timeout time.Duration
}

func NewGenerator(backend Backend, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{backend: backend, timeout: timeout}
}

func (g *Generator) Generate(ctx context.Context, systemPrompt string, history []engine.TurnRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msgs := make([]ai.Message, 0, len(history))
	for _, turn := range history {
		role := ai.RoleUser
		if turn.Role == engine.RoleAssistant {
			role = ai.RoleAssistant
		}
		msgs = append(msgs, ai.Message{Role: role, Content: turn.Text})
	}
	return g.backend.Generate(ctx, systemPrompt, msgs)
}

// FieldExtractor adapts a Backend to the engine's structured extractor
// interface. Key filtering happens in the engine; this only translates
// types.
type FieldExtractor struct {
	backend Backend
}

func NewFieldExtractor(backend Backend) *FieldExtractor {
	return &FieldExtractor{backend: backend}
}

func (f *FieldExtractor) Extract(ctx context.Context, utterance string, missing []engine.FieldKey) (map[engine.FieldKey]string, error) {
	fields := make([]string, 0, len(missing))
	for _, k := range missing {
		fields = append(fields, string(k))
	}
	raw, err := f.backend.ExtractJSON(ctx, utterance, fields)
	if err != nil {
		return nil, err
	}
	out := make(map[engine.FieldKey]string, len(raw))
	for k, v := range raw {
		out[engine.FieldKey(k)] = v
	}
	return out, nil
}
