// Package conversation provides the conversation bounded context module.
// This file defines the module that encapsulates session setup and route registration.
package conversation

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadagent_backend/internal/conversation/engine"
	"leadagent_backend/internal/conversation/handler"
	"leadagent_backend/internal/conversation/ports"
	"leadagent_backend/internal/conversation/repository"
	"leadagent_backend/internal/conversation/session"
	"leadagent_backend/internal/conversation/store"
	"leadagent_backend/internal/events"
	apphttp "leadagent_backend/internal/http"
	leadservice "leadagent_backend/internal/leads/service"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/logger"
	"leadagent_backend/platform/validator"
)

// Module is the conversation bounded context module implementing http.Module.
type Module struct {
	service  *session.Service
	validate *validator.Validator
}

// NewModule creates and initializes the conversation module with all its dependencies.
func NewModule(
	ctx context.Context,
	pool *pgxpool.Pool,
	leads *leadservice.Service,
	generator ports.TextGenerator,
	fieldExtractor engine.StructuredExtractor,
	eventBus events.Bus,
	val *validator.Validator,
	cfg *config.Config,
	log *logger.Logger,
) (*Module, error) {
	snapshotTTL := cfg.GetConversationIdleTTL()
	if snapshotTTL < time.Hour {
		snapshotTTL = 24 * time.Hour
	}
	snapshots, err := store.NewFromURL(ctx, cfg.GetRedisURL(), snapshotTTL)
	if err != nil {
		return nil, err
	}

	svc := session.NewService(repository.New(pool), snapshots, leads, generator, fieldExtractor, eventBus, cfg, log)

	return &Module{
		service:  svc,
		validate: val,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversation"
}

// Service returns the conversation service for external use.
func (m *Module) Service() *session.Service {
	return m.service
}

// SetSpeech wires the optional voice collaborators onto the service.
func (m *Module) SetSpeech(transcriber ports.Transcriber, synthesizer ports.Synthesizer, archiver ports.AudioArchiver) {
	m.service.SetSpeech(transcriber, synthesizer, archiver)
}

// RegisterRoutes mounts conversation routes on the provided router context.
// The handler is built here because the per-conversation rate limiter is
// owned by the router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	h := handler.New(m.service, m.validate, ctx.TurnRateLimiter)
	h.RegisterRoutes(ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
