package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskConversationExpiry = "conversation.expire"

type ConversationExpiryPayload struct {
	ConversationID string `json:"conversationId"`
}

func NewConversationExpiryTask(payload ConversationExpiryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConversationExpiry, data), nil
}

func ParseConversationExpiryPayload(task *asynq.Task) (ConversationExpiryPayload, error) {
	var payload ConversationExpiryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ConversationExpiryPayload{}, err
	}
	return payload, nil
}
