// Package scheduler runs the background jobs: expiring idle
// conversations. Tasks go through asynq on the same Redis instance
// that holds the conversation snapshots.
package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"leadagent_backend/platform/config"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueConversationExpiry queues one idle conversation for expiry.
func (c *Client) EnqueueConversationExpiry(ctx context.Context, payload ConversationExpiryPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewConversationExpiryTask(payload)
	if err != nil {
		return err
	}

	// TaskID makes retried scans idempotent while a task is pending.
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.TaskID("expire:"+payload.ConversationID))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
