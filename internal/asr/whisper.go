// Package asr transcribes recorded speech with a local whisper.cpp
// model. Voice support is optional; the module is only constructed
// when a model path is configured.
package asr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"leadagent_backend/platform/logger"
)

// Transcriber wraps one loaded whisper model. Model contexts are not
// safe for concurrent use, so transcriptions serialize on a mutex.
type Transcriber struct {
	mu    sync.Mutex
	model whisper.Model
	log   *logger.Logger
}

func New(modelPath string, log *logger.Logger) (*Transcriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	return &Transcriber{model: model, log: log}, nil
}

// Transcribe converts a 16 kHz mono PCM WAV payload to text.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	samples, err := decodeWAV(audio)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper context: %w", err)
	}
	if language != "" {
		if err := wctx.SetLanguage(language); err != nil {
			t.log.Warn("unsupported transcription language", "language", language, "error", err)
		}
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	var b strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			break
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(segment.Text))
	}
	return strings.TrimSpace(b.String()), nil
}

// Close releases the loaded model.
func (t *Transcriber) Close() error {
	return t.model.Close()
}
