// Package genaillm is the hosted Gemini backend. It generates stage
// replies as plain text and runs structured field extraction through
// the JSON-schema response mode, so extraction output is parseable by
// construction.
package genaillm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"leadagent_backend/platform/ai"
	"leadagent_backend/platform/logger"
)

type Client struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

func New(ctx context.Context, apiKey, model string, log *logger.Logger) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: c, model: model, log: log}, nil
}

// Generate produces the assistant's next reply for the given system
// prompt and chat history.
func (c *Client) Generate(ctx context.Context, systemPrompt string, msgs []ai.Message) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, toContents(msgs), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text, nil
}

// ExtractJSON asks the model to fill the named fields from the
// utterance. The response schema restricts output to a flat string
// object over exactly those fields; fields that are not literally
// supported by the utterance must be omitted.
func (c *Client) ExtractJSON(ctx context.Context, utterance string, fields []string) (map[string]string, error) {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(extractionInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.1),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    &genai.Schema{Type: genai.TypeObject, Properties: props},
	}
	contents := []*genai.Content{
		genai.NewContentFromText(utterance, genai.RoleUser),
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini extract: %w", err)
	}

	out := make(map[string]string)
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil {
		return nil, fmt.Errorf("gemini extract: decode response: %w", err)
	}
	return out, nil
}

const extractionInstruction = "You extract sales lead attributes from a single customer utterance. " +
	"Return only values the utterance literally states or clearly implies. " +
	"Omit every field the utterance does not support. Never invent values."

func toContents(msgs []ai.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == ai.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}
