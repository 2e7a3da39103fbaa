// Package ai holds the shared chat types used by the language model
// backends under platform/ai.
package ai

// Message is one chat turn passed to a backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
