package models

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a chat message in the system
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`

	// Sender is filled in when the message is returned populated,
	// so clients can render the author without a second lookup.
	Sender *UserSummary `json:"sender,omitempty"`
}

// MessageRequest is the structure for message creation requests
type MessageRequest struct {
	ChatID   uuid.UUID `json:"chat_id" binding:"required"`
	SenderID uuid.UUID `json:"sender_id" binding:"required"`
	Content  string    `json:"content" binding:"required"`
}
