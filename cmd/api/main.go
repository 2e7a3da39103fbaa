package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadagent_backend/internal/adapters/storage"
	"leadagent_backend/internal/asr"
	"leadagent_backend/internal/conversation"
	"leadagent_backend/internal/conversation/llm"
	"leadagent_backend/internal/conversation/ports"
	"leadagent_backend/internal/email"
	"leadagent_backend/internal/events"
	"leadagent_backend/internal/http/router"
	"leadagent_backend/internal/leads"
	"leadagent_backend/internal/tts"
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

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Language model backend (cloud, local or auto with fallback)
	backend, err := llm.NewBackend(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize llm backend", "error", err)
		panic("failed to initialize llm backend: " + err.Error())
	}
	generator := llm.NewGenerator(backend, cfg.GetGenerateTimeout())
	fieldExtractor := llm.NewFieldExtractor(backend)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Email module subscribes to domain events (not HTTP-facing)
	emailModule := email.NewModule(cfg, log)
	emailModule.RegisterHandlers(eventBus)

	leadsModule := leads.NewModule(pool, eventBus, val, log)

	conversationModule, err := conversation.NewModule(ctx, pool, leadsModule.Service(), generator, fieldExtractor, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize conversation module", "error", err)
		panic("failed to initialize conversation module: " + err.Error())
	}

	// Voice pipeline is optional: each collaborator is wired only when
	// configured, and the conversation service degrades to text without them.
	transcriber, synthesizer, archiver := initSpeech(ctx, cfg, log)
	if transcriber != nil || synthesizer != nil {
		conversationModule.SetSpeech(transcriber, synthesizer, archiver)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	engine := router.New(cfg, log, pool, leadsModule, conversationModule)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initSpeech builds the optional ASR, TTS and audio-archive collaborators.
func initSpeech(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.Transcriber, ports.Synthesizer, ports.AudioArchiver) {
	var transcriber ports.Transcriber
	if cfg.IsASREnabled() {
		t, err := asr.New(cfg.GetWhisperModelPath(), log)
		if err != nil {
			log.Error("failed to load whisper model", "error", err, "path", cfg.GetWhisperModelPath())
			panic("failed to load whisper model: " + err.Error())
		}
		transcriber = t
		log.Info("speech recognition enabled", "model", cfg.GetWhisperModelPath())
	}

	var synthesizer ports.Synthesizer
	if cfg.IsTTSEnabled() {
		synthesizer = tts.New(cfg.GetTTSBaseURL())
		log.Info("speech synthesis enabled", "url", cfg.GetTTSBaseURL())
	}

	var archiver ports.AudioArchiver
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewAudioStore(cfg)
		if err != nil {
			log.Error("failed to initialize audio storage", "error", err)
			panic("failed to initialize audio storage: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure audio bucket", 5, 2*time.Second, func() error {
			return store.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure audio bucket exists", "error", err, "bucket", cfg.GetMinioBucketAudio())
			panic("failed to ensure audio bucket exists: " + err.Error())
		}
		archiver = store
		log.Info("audio storage initialized", "bucket", cfg.GetMinioBucketAudio())
	}

	return transcriber, synthesizer, archiver
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
