package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adityakumar841208/virtual-deal-room/internal/database"
	"github.com/adityakumar841208/virtual-deal-room/internal/models"
	ws "github.com/adityakumar841208/virtual-deal-room/internal/websocket"
)

// Broadcaster publishes room-scoped events to connected clients,
// excluding every connection owned by excludeUserID.
type Broadcaster interface {
	Publish(chatID uuid.UUID, event string, payload interface{}, excludeUserID uuid.UUID)
}

// MessageHandler handles message-related routes
type MessageHandler struct {
	DB  database.Store
	Hub Broadcaster
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(db database.Store, hub Broadcaster) *MessageHandler {
	return &MessageHandler{DB: db, Hub: hub}
}

// SendMessage persists a new message and fans it out to the chat room.
// The REST response is the sender's success signal; the broadcast
// deliberately excludes the sender's own connections.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content cannot be empty"})
		return
	}

	message, err := h.DB.CreateMessage(req.ChatID, req.SenderID, content)
	switch err {
	case nil:
	case database.ErrChatNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	case database.ErrNotParticipant:
		c.JSON(http.StatusForbidden, gin.H{"error": "User is not a participant in this chat"})
		return
	case database.ErrUserNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Sender not found"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not send message"})
		return
	}

	// Persistence completed; anything broadcast from here is also
	// visible to a concurrent history fetch.
	h.Hub.Publish(message.ChatID, ws.EventMessageReceived, message, message.SenderID)

	c.JSON(http.StatusCreated, message)
}

// MarkMessageAsRead flips the read flag. Re-marking an already-read
// message is a no-op success.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	message, err := h.DB.MarkMessageAsRead(messageID)
	if err == database.ErrMessageNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update message"})
		return
	}

	c.JSON(http.StatusOK, message)
}

// DeleteMessage hard-deletes a message
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	err = h.DB.DeleteMessage(messageID)
	if err == database.ErrMessageNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}
