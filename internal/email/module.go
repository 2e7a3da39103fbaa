package email

import (
	"context"

	"leadagent_backend/internal/events"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/logger"
)

// Module subscribes the sender to the domain events that warrant a
// notification. It has no HTTP surface.
type Module struct {
	sender  *Sender
	enabled bool
	log     *logger.Logger
}

func NewModule(cfg *config.Config, log *logger.Logger) *Module {
	return &Module{
		sender:  NewSender(cfg),
		enabled: cfg.GetEmailEnabled(),
		log:     log,
	}
}

// RegisterHandlers wires the notification handlers onto the bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	if !m.enabled {
		m.log.Info("email notifications disabled")
		return
	}

	bus.Subscribe(events.LeadQualified{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadQualified)
		if !ok {
			return nil
		}
		if err := m.sender.SendQualifiedLead(ctx, e.Name, e.Company, e.Fields, e.Summary); err != nil {
			m.log.Error("send qualified lead email", "error", err, "leadId", e.LeadID)
			return err
		}
		return nil
	}))
}
