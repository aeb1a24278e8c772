package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultChatTitle is used when a chat is created without a title.
const DefaultChatTitle = "New Conversation"

// Chat represents a conversation between a fixed set of participants
type Chat struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	Participants  []uuid.UUID `json:"participants"`
	LastMessageID *uuid.UUID  `json:"last_message_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// HasParticipant reports whether userID belongs to the chat's participant set
func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ChatRequest is the structure for chat creation requests
type ChatRequest struct {
	Title        string      `json:"title"`
	Participants []uuid.UUID `json:"participants" binding:"required"`
}
