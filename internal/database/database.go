package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/adityakumar841208/virtual-deal-room/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrChatNotFound      = errors.New("chat not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrNotParticipant    = errors.New("user is not a participant in this chat")
)

// Store is the persistence boundary for users, chats and messages.
// Messages returned by Store methods are populated with sender details.
type Store interface {
	// User methods
	CreateUser(name, email, passwordHash string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uuid.UUID) (*models.User, error)

	// Chat methods
	CreateChat(title string, participants []uuid.UUID) (*models.Chat, error)
	GetChatByID(chatID uuid.UUID) (*models.Chat, error)
	GetChatsForUser(userID uuid.UUID) ([]*models.Chat, error)

	// Message methods
	CreateMessage(chatID, senderID uuid.UUID, content string) (*models.Message, error)
	GetMessagesByChat(chatID uuid.UUID) ([]*models.Message, error)
	GetMessageByID(messageID uuid.UUID) (*models.Message, error)
	MarkMessageAsRead(messageID uuid.UUID) (*models.Message, error)
	DeleteMessage(messageID uuid.UUID) error

	// Common methods
	Close() error
}

type StoreType string

const (
	PostgreSQL StoreType = "postgres"
	Memory     StoreType = "memory"
)

func NewStore(storeType StoreType, connStr string) (Store, error) {
	switch storeType {
	case PostgreSQL:
		return NewPostgresStore(connStr)
	case Memory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
