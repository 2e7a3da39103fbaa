// Package llm selects and adapts the language model backend. The
// hosted and self-hosted clients share one surface; everything above
// this package only sees the conversation ports.
package llm

import (
	"context"
	"fmt"

	"leadagent_backend/platform/ai"
	"leadagent_backend/platform/ai/genaillm"
	"leadagent_backend/platform/ai/llamasrv"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/logger"
)

// Backend is the common surface of the model clients.
type Backend interface {
	Generate(ctx context.Context, systemPrompt string, msgs []ai.Message) (string, error)
	ExtractJSON(ctx context.Context, utterance string, fields []string) (map[string]string, error)
}

// NewBackend builds the backend the configuration asks for. Mode auto
// probes the local server first and falls back to the hosted model when
// it is unreachable.
func NewBackend(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (Backend, error) {
	local := llamasrv.New(llamasrv.Config{
		BaseURL: cfg.GetLocalLLMURL(),
		Model:   cfg.GetLocalLLMModel(),
	})

	switch cfg.GetLLMMode() {
	case "local":
		return local, nil
	case "cloud":
		return genaillm.New(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel(), log)
	case "auto":
		if err := local.Ping(ctx); err == nil {
			log.Info("llm backend selected", "mode", "auto", "backend", "local", "model", cfg.GetLocalLLMModel())
			return local, nil
		}
		log.Info("llm backend selected", "mode", "auto", "backend", "cloud", "model", cfg.GetGeminiModel())
		return genaillm.New(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel(), log)
	default:
		return nil, fmt.Errorf("unknown llm mode %q", cfg.GetLLMMode())
	}
}
