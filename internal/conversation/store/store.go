// Package store persists live engine state in Redis so a conversation
// can resume across process restarts. Postgres keeps the durable
// transcript; this keeps only the resumable snapshot.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leadagent_backend/internal/conversation/engine"
)

// ErrSnapshotNotFound is returned when no snapshot exists for the key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SnapshotStore{client: client, ttl: ttl}
}

// NewFromURL connects using a redis:// URL and verifies the connection.
func NewFromURL(ctx context.Context, url string, ttl time.Duration) (*SnapshotStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(client, ttl), nil
}

func key(conversationID string) string {
	return "conversation:state:" + conversationID
}

func (s *SnapshotStore) Save(ctx context.Context, conversationID string, state engine.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, key(conversationID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, conversationID string) (engine.State, error) {
	raw, err := s.client.Get(ctx, key(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return engine.State{}, ErrSnapshotNotFound
	}
	if err != nil {
		return engine.State{}, fmt.Errorf("load snapshot: %w", err)
	}
	var state engine.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return engine.State{}, fmt.Errorf("%w: %v", engine.ErrCorruptSnapshot, err)
	}
	return state, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, conversationID string) error {
	return s.client.Del(ctx, key(conversationID)).Err()
}
