package events

import (
	"context"
	"errors"
	"sync"

	"leadagent_backend/platform/logger"
)

// InMemoryBus is an in-process Bus implementation. Handlers for a given
// event run in registration order; Publish detaches them onto a goroutine.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously.
// Handler errors are logged, never propagated to the publisher.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	handlers := b.handlersFor(event.EventName())
	if len(handlers) == 0 {
		return
	}

	go func() {
		for _, h := range handlers {
			b.dispatch(ctx, event, h)
		}
	}()
}

// PublishSync dispatches the event to all handlers and waits for completion,
// returning the combined handler errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, h := range b.handlersFor(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]Handler, len(b.handlers[eventName]))
	copy(handlers, b.handlers[eventName])
	return handlers
}

func (b *InMemoryBus) dispatch(ctx context.Context, event Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "event", event.EventName(), "panic", r)
		}
	}()
	if err := h.Handle(ctx, event); err != nil {
		b.log.Error("event handler failed", "event", event.EventName(), "error", err)
	}
}
