package database

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adityakumar841208/virtual-deal-room/internal/models"
)

// MemoryStore is an in-memory Store used for development and tests.
// Message slices are kept in insertion order per chat, which is also the
// transcript tie-break order.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*models.User
	usersByEmail map[string]*models.User
	chats        map[uuid.UUID]*models.Chat
	messages     map[uuid.UUID]*models.Message
	chatIndex    map[uuid.UUID][]uuid.UUID // chatID -> message IDs, insertion order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]*models.User),
		chats:        make(map[uuid.UUID]*models.Chat),
		messages:     make(map[uuid.UUID]*models.Message),
		chatIndex:    make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *MemoryStore) CreateUser(name, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return nil, ErrUserAlreadyExists
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.usersByEmail[email] = user

	return copyUser(user), nil
}

func (s *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

func (s *MemoryStore) GetUserByID(id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

func (s *MemoryStore) CreateChat(title string, participants []uuid.UUID) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	chat := &models.Chat{
		ID:           uuid.New(),
		Title:        title,
		Participants: append([]uuid.UUID(nil), participants...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.chats[chat.ID] = chat

	return copyChat(chat), nil
}

func (s *MemoryStore) GetChatByID(chatID uuid.UUID) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	return copyChat(chat), nil
}

func (s *MemoryStore) GetChatsForUser(userID uuid.UUID) ([]*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chats []*models.Chat
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, copyChat(chat))
		}
	}

	// Most recently active first
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})

	return chats, nil
}

func (s *MemoryStore) CreateMessage(chatID, senderID uuid.UUID, content string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}

	if !chat.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	sender, ok := s.users[senderID]
	if !ok {
		return nil, ErrUserNotFound
	}

	message := &models.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[message.ID] = message
	s.chatIndex[chatID] = append(s.chatIndex[chatID], message.ID)

	chat.LastMessageID = &message.ID
	chat.UpdatedAt = message.CreatedAt

	return s.populate(message, sender), nil
}

func (s *MemoryStore) GetMessagesByChat(chatID uuid.UUID) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var messages []*models.Message
	for _, id := range s.chatIndex[chatID] {
		msg := s.messages[id]
		if msg == nil {
			continue // deleted
		}
		messages = append(messages, s.populate(msg, s.users[msg.SenderID]))
	}

	return messages, nil
}

func (s *MemoryStore) GetMessageByID(messageID uuid.UUID) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return nil, ErrMessageNotFound
	}
	return s.populate(msg, s.users[msg.SenderID]), nil
}

func (s *MemoryStore) MarkMessageAsRead(messageID uuid.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return nil, ErrMessageNotFound
	}

	msg.IsRead = true
	return s.populate(msg, s.users[msg.SenderID]), nil
}

func (s *MemoryStore) DeleteMessage(messageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return ErrMessageNotFound
	}

	delete(s.messages, messageID)

	ids := s.chatIndex[msg.ChatID]
	for i, id := range ids {
		if id == messageID {
			s.chatIndex[msg.ChatID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// populate returns a copy of msg with sender details attached.
func (s *MemoryStore) populate(msg *models.Message, sender *models.User) *models.Message {
	out := *msg
	if sender != nil {
		out.Sender = sender.Summary()
	}
	return &out
}

func copyUser(u *models.User) *models.User {
	out := *u
	return &out
}

func copyChat(c *models.Chat) *models.Chat {
	out := *c
	out.Participants = append([]uuid.UUID(nil), c.Participants...)
	if c.LastMessageID != nil {
		id := *c.LastMessageID
		out.LastMessageID = &id
	}
	return &out
}
