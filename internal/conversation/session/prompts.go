package session

import (
	"fmt"
	"strings"

	"leadagent_backend/internal/conversation/engine"
)

const persona = "You are a warm, concise sales assistant on a live call with a prospect. " +
	"Reply in at most three sentences, ask at most one question per reply, and never " +
	"mention stages, internal state or that you are following a script."

var stageGoals = map[string]string{
	"introduction": "Greet the prospect, introduce yourself briefly and learn who you " +
		"are talking to: their name and the company they work for.",
	"needs_identification": "Explore what the prospect is trying to achieve. Get them to " +
		"describe the need they want solved and the pain point behind it.",
	"qualification": "Understand whether this is a real opportunity: ask about the budget " +
		"they have in mind and the timeline they are working with.",
	"proposal": "Connect what you learned to a concrete offering. Describe how the product " +
		"addresses their need and confirm which product or plan interests them.",
	"closing": "Summarize the conversation, agree on a concrete next step and confirm " +
		"how to reach them.",
	engine.TemplateEnding: "Wrap up politely. Thank the prospect for their time and say " +
		"goodbye. Do not ask any further questions.",
}

// BuildSystemPrompt renders the stage goal plus the profile context into
// the system prompt for response generation. Goals from the tuning file
// override the built-in ones per template id.
func BuildSystemPrompt(pc engine.PromptContext, overrides map[string]string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nCurrent objective: ")
	goal, ok := overrides[pc.TemplateID]
	if !ok {
		goal, ok = stageGoals[pc.TemplateID]
	}
	if !ok {
		goal = stageGoals[engine.TemplateEnding]
	}
	b.WriteString(goal)

	if len(pc.Profile.Fields) > 0 {
		b.WriteString("\n\nWhat you already know:")
		for _, k := range engine.AllFields {
			if v := pc.Profile.Get(k); v != "" {
				fmt.Fprintf(&b, "\n- %s: %s", strings.ReplaceAll(string(k), "_", " "), v)
			}
		}
	}
	if len(pc.MissingFields) > 0 {
		b.WriteString("\n\nStill to learn, one at a time: ")
		parts := make([]string, 0, len(pc.MissingFields))
		for _, k := range pc.MissingFields {
			parts = append(parts, strings.ReplaceAll(string(k), "_", " "))
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	if pc.Forced {
		b.WriteString("\n\nThe previous topic was not landing. Move the conversation " +
			"forward naturally without repeating earlier questions.")
	}
	return b.String()
}

// BuildSummaryPrompt asks the model for a short handover summary of the
// finished conversation.
func BuildSummaryPrompt(profile engine.LeadProfile) string {
	var b strings.Builder
	b.WriteString("Write a summary of this sales conversation for a human account " +
		"executive, in at most five sentences. Cover who the prospect is, what they " +
		"need, their budget and timeline if known, and the agreed next step. " +
		"Plain text only.")
	if len(profile.Fields) > 0 {
		b.WriteString("\n\nCaptured attributes:")
		for _, k := range engine.AllFields {
			if v := profile.Get(k); v != "" {
				fmt.Fprintf(&b, "\n- %s: %s", strings.ReplaceAll(string(k), "_", " "), v)
			}
		}
	}
	return b.String()
}
