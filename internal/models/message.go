package models

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an individual entry of a chat transcript. It carries the participant's role, the
// text exchanged and the time it was created. A Message is never edited after it has been appended to
// a transcript, and its position in the transcript is the conversation order.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Role represents the role of a message participant.
type Role string

const (
	// RoleUser represents a message typed by the visitor into the chat widget.
	RoleUser Role = "user"
	// RoleAssistant represents a reply of the assistant, including the seeded greeting and fallbacks.
	RoleAssistant Role = "assistant"
)

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}
