// Package storage archives raw conversation audio in MinIO. The
// transcript is the durable record; audio is kept for quality review.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"leadagent_backend/platform/config"
)

// AudioStore implements the audio archiver port on MinIO.
type AudioStore struct {
	client *minio.Client
	bucket string
}

func NewAudioStore(cfg config.MinIOConfig) (*AudioStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &AudioStore{client: client, bucket: cfg.GetMinioBucketAudio()}, nil
}

// EnsureBucketExists creates the audio bucket if it doesn't exist.
func (s *AudioStore) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Store uploads one turn's audio under the conversation's prefix and
// returns the object key.
func (s *AudioStore) Store(ctx context.Context, conversationID string, audio []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%s/%s_%s", conversationID, time.Now().UTC().Format("20060102T150405"), uuid.New().String()[:8])

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(audio), int64(len(audio)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}
	return key, nil
}
