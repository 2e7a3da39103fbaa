package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"leadagent_backend/platform/config"
	"leadagent_backend/platform/logger"
)

// ConversationExpirer is the slice of the conversation service the
// worker needs.
type ConversationExpirer interface {
	Expire(ctx context.Context, conversationID uuid.UUID) error
	IdleConversations(ctx context.Context, cutoff time.Time, limit int) ([]IdleConversation, error)
}

// IdleConversation identifies one conversation due for expiry.
type IdleConversation struct {
	ID uuid.UUID
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	client  *Client
	svc     ConversationExpirer
	idleTTL time.Duration
	scan    time.Duration
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, client *Client, svc ConversationExpirer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		client:  client,
		svc:     svc,
		idleTTL: cfg.GetConversationIdleTTL(),
		scan:    cfg.GetExpiryScanInterval(),
		log:     log,
	}
	mux.HandleFunc(TaskConversationExpiry, w.handleConversationExpiry)

	return w, nil
}

// Run starts the task server and the periodic idle scan, blocking
// until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	go w.scanLoop(ctx)

	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *Worker) handleConversationExpiry(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseConversationExpiryPayload(task)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(payload.ConversationID)
	if err != nil {
		return err
	}

	if err := w.svc.Expire(ctx, id); err != nil {
		w.log.Error("expire conversation", "error", err, "conversationId", id)
		return err
	}
	w.log.Info("conversation expired", "conversationId", id)
	return nil
}

// scanLoop periodically enqueues expiry tasks for idle conversations.
func (w *Worker) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(w.scan)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.enqueueIdle(ctx)
		}
	}
}

func (w *Worker) enqueueIdle(ctx context.Context) {
	cutoff := time.Now().Add(-w.idleTTL)
	idle, err := w.svc.IdleConversations(ctx, cutoff, 100)
	if err != nil {
		w.log.Error("scan idle conversations", "error", err)
		return
	}
	for _, conv := range idle {
		if err := w.client.EnqueueConversationExpiry(ctx, ConversationExpiryPayload{
			ConversationID: conv.ID.String(),
		}); err != nil {
			w.log.Error("enqueue conversation expiry", "error", err, "conversationId", conv.ID)
		}
	}
}
