// Package llamasrv is the self-hosted backend. It speaks the
// OpenAI-compatible chat completions API exposed by llama.cpp style
// servers, so any local model behind that surface works unchanged.
package llamasrv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"leadagent_backend/platform/ai"
)

type Config struct {
	BaseURL string
	Model   string
	APIKey  string // optional, most local servers ignore it
}

type Client struct {
	config Config
	client *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8081/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		config: cfg,
		client: &http.Client{},
	}
}

func (c *Client) Name() string {
	return c.config.Model
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error interface{} `json:"error"`
}

// Generate produces the assistant's next reply for the given system
// prompt and chat history.
func (c *Client) Generate(ctx context.Context, systemPrompt string, msgs []ai.Message) (string, error) {
	messages := make([]openAIMessage, 0, len(msgs)+1)
	messages = append(messages, openAIMessage{Role: ai.RoleSystem, Content: systemPrompt})
	for _, m := range msgs {
		messages = append(messages, openAIMessage{Role: m.Role, Content: m.Content})
	}
	content, err := c.complete(ctx, messages, 0.7)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("local llm error: empty completion")
	}
	return content, nil
}

// ExtractJSON asks the model to fill the named fields from the
// utterance and returns the decoded object. Local models drift from
// strict JSON output, so the response goes through a tolerant recovery
// pass before decoding.
func (c *Client) ExtractJSON(ctx context.Context, utterance string, fields []string) (map[string]string, error) {
	prompt := extractionPrompt(fields)
	messages := []openAIMessage{
		{Role: ai.RoleSystem, Content: prompt},
		{Role: ai.RoleUser, Content: utterance},
	}
	content, err := c.complete(ctx, messages, 0.1)
	if err != nil {
		return nil, err
	}

	raw := recoverJSON(content)
	out := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("local llm error: decode extraction: %w", err)
	}
	return out, nil
}

// Ping checks whether the local server is reachable. The factory uses
// it to decide between the local and hosted backends in auto mode.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/models", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("local llm unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("local llm error: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, messages []openAIMessage, temperature float64) (string, error) {
	payload := map[string]interface{}{
		"model":       c.config.Model,
		"messages":    messages,
		"temperature": temperature,
	}

	jsonBody, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode local llm response: %v", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("local llm error: %v", result.Error)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("local llm error: empty choices")
	}
	return result.Choices[0].Message.Content, nil
}

func extractionPrompt(fields []string) string {
	return "You extract sales lead attributes from a single customer utterance. " +
		"Respond with a single JSON object and nothing else. " +
		"Allowed keys: " + strings.Join(fields, ", ") + ". " +
		"Include a key only when the utterance literally states or clearly implies its value. " +
		"Never invent values. An empty object is a valid answer."
}

// recoverJSON strips markdown fences and surrounding prose, keeping the
// outermost object literal.
func recoverJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
