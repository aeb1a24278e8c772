package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/adityakumar841208/virtual-deal-room/internal/database"
	"github.com/adityakumar841208/virtual-deal-room/internal/models"
)

// ChatHandler handles chat-related routes
type ChatHandler struct {
	DB database.Store
}

// NewChatHandler creates a new chat handler
func NewChatHandler(db database.Store) *ChatHandler {
	return &ChatHandler{DB: db}
}

// CreateChat creates a new conversation. The participant set is fixed at
// creation and must contain at least two distinct users.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participants := lo.Uniq(req.Participants)
	if len(participants) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least two participants are required"})
		return
	}

	title := req.Title
	if title == "" {
		title = models.DefaultChatTitle
	}

	chat, err := h.DB.CreateChat(title, participants)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create chat"})
		return
	}

	// No broadcast: nobody is subscribed to a chat that was just created.
	c.JSON(http.StatusCreated, chat)
}

// GetChat returns a single chat by id
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("chatID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	chat, err := h.DB.GetChatByID(chatID)
	if err == database.ErrChatNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not retrieve chat"})
		return
	}

	c.JSON(http.StatusOK, chat)
}

// GetChatsForUser returns every chat the user participates in,
// most recently active first
func (h *ChatHandler) GetChatsForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	chats, err := h.DB.GetChatsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not retrieve chats"})
		return
	}

	c.JSON(http.StatusOK, chats)
}

// GetMessages returns the full transcript of a chat in createdAt order
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("chatID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	messages, err := h.DB.GetMessagesByChat(chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not retrieve messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}
