// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"leadagent_backend/internal/events"
	apphttp "leadagent_backend/internal/http"
	"leadagent_backend/internal/leads/handler"
	"leadagent_backend/internal/leads/repository"
	"leadagent_backend/internal/leads/service"
	"leadagent_backend/platform/logger"
	"leadagent_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
