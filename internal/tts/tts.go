// Package tts renders reply text as speech through an HTTP speech
// server. Any server exposing a synthesize endpoint that returns raw
// audio works; the engine never depends on the audio format.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxSynthesisBytes caps a synthesized reply at 25 MiB.
const maxSynthesisBytes = 25 << 20

type Synthesizer struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Synthesizer {
	return &Synthesizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

// Synthesize returns the spoken audio for the given text.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	jsonBody, _ := json.Marshal(synthesizeRequest{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts error: status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxSynthesisBytes))
	if err != nil {
		return nil, fmt.Errorf("tts read response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts error: empty audio")
	}
	return audio, nil
}
