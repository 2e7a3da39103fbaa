package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadagent_backend/internal/adapters"
	"leadagent_backend/internal/conversation"
	"leadagent_backend/internal/conversation/llm"
	"leadagent_backend/internal/email"
	"leadagent_backend/internal/events"
	"leadagent_backend/internal/leads"
	"leadagent_backend/internal/scheduler"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/db"
	"leadagent_backend/platform/logger"
	"leadagent_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Expiring a conversation finalizes it, which can qualify a lead, so the
	// worker carries the same email wiring as the API.
	emailModule := email.NewModule(cfg, log)
	emailModule.RegisterHandlers(eventBus)

	val := validator.New()

	// Worker-side conversation wiring (no HTTP handlers required).
	backend, err := llm.NewBackend(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize llm backend", "error", err)
		panic("failed to initialize llm backend: " + err.Error())
	}
	generator := llm.NewGenerator(backend, cfg.GetGenerateTimeout())
	fieldExtractor := llm.NewFieldExtractor(backend)

	leadsModule := leads.NewModule(pool, eventBus, val, log)
	conversationModule, err := conversation.NewModule(ctx, pool, leadsModule.Service(), generator, fieldExtractor, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize conversation module", "error", err)
		panic("failed to initialize conversation module: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	expirer := adapters.NewConversationExpiryAdapter(conversationModule.Service())
	worker, err := scheduler.NewWorker(cfg, client, expirer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	if err := worker.Run(ctx); err != nil {
		log.Error("scheduler worker stopped", "error", err)
		panic("scheduler worker stopped: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
