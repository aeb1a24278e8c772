package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/adityakumar841208/virtual-deal-room/internal/models"
)

type PostgresStore struct {
	*sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db}, nil
}

// Migrate creates the schema when it does not exist yet.
func (db *PostgresStore) Migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS chats (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			participants UUID[] NOT NULL,
			last_message_id UUID,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			chat_id UUID NOT NULL REFERENCES chats(id),
			sender_id UUID NOT NULL REFERENCES users(id),
			content TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages (chat_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_chats_participants ON chats USING GIN (participants);
	`
	_, err := db.Exec(schema)
	return err
}

func (db *PostgresStore) CreateUser(name, email, passwordHash string) (*models.User, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = $1", email).Scan(&count)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		"INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)",
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresStore) GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}

	err := db.QueryRow(
		"SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1",
		email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresStore) GetUserByID(id uuid.UUID) (*models.User, error) {
	user := &models.User{}

	err := db.QueryRow(
		"SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1",
		id).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresStore) CreateChat(title string, participants []uuid.UUID) (*models.Chat, error) {
	now := time.Now().UTC()
	chat := &models.Chat{
		ID:           uuid.New(),
		Title:        title,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.String()
	}

	_, err := db.Exec(
		"INSERT INTO chats (id, title, participants, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		chat.ID, chat.Title, pq.Array(ids), chat.CreatedAt, chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return chat, nil
}

func (db *PostgresStore) GetChatByID(chatID uuid.UUID) (*models.Chat, error) {
	chat := &models.Chat{}
	var participants pq.StringArray
	var lastMessageID uuid.NullUUID

	err := db.QueryRow(
		"SELECT id, title, participants, last_message_id, created_at, updated_at FROM chats WHERE id = $1",
		chatID).Scan(&chat.ID, &chat.Title, &participants, &lastMessageID, &chat.CreatedAt, &chat.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}

	if chat.Participants, err = parseUUIDs(participants); err != nil {
		return nil, err
	}
	if lastMessageID.Valid {
		chat.LastMessageID = &lastMessageID.UUID
	}

	return chat, nil
}

func (db *PostgresStore) GetChatsForUser(userID uuid.UUID) ([]*models.Chat, error) {
	rows, err := db.Query(
		"SELECT id, title, participants, last_message_id, created_at, updated_at FROM chats WHERE $1 = ANY(participants) ORDER BY updated_at DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		chat := &models.Chat{}
		var participants pq.StringArray
		var lastMessageID uuid.NullUUID

		if err := rows.Scan(&chat.ID, &chat.Title, &participants, &lastMessageID, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, err
		}

		if chat.Participants, err = parseUUIDs(participants); err != nil {
			return nil, err
		}
		if lastMessageID.Valid {
			chat.LastMessageID = &lastMessageID.UUID
		}

		chats = append(chats, chat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return chats, nil
}

func (db *PostgresStore) CreateMessage(chatID, senderID uuid.UUID, content string) (*models.Message, error) {
	chat, err := db.GetChatByID(chatID)
	if err != nil {
		return nil, err
	}

	if !chat.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	sender, err := db.GetUserByID(senderID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
		Sender:    sender.Summary(),
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO messages (id, chat_id, sender_id, content, is_read, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		message.ID, message.ChatID, message.SenderID, message.Content, message.IsRead, message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Keep the chat preview in sync with the newest message.
	_, err = tx.Exec(
		"UPDATE chats SET last_message_id = $1, updated_at = $2 WHERE id = $3",
		message.ID, message.CreatedAt, chatID,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return message, nil
}

func (db *PostgresStore) GetMessagesByChat(chatID uuid.UUID) ([]*models.Message, error) {
	rows, err := db.Query(
		`SELECT m.id, m.chat_id, m.sender_id, m.content, m.is_read, m.created_at, u.name, u.email
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at ASC, m.id ASC`,
		chatID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{Sender: &models.UserSummary{}}

		err := rows.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Content, &msg.IsRead, &msg.CreatedAt,
			&msg.Sender.Name, &msg.Sender.Email)
		if err != nil {
			return nil, err
		}
		msg.Sender.ID = msg.SenderID

		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (db *PostgresStore) GetMessageByID(messageID uuid.UUID) (*models.Message, error) {
	msg := &models.Message{Sender: &models.UserSummary{}}

	err := db.QueryRow(
		`SELECT m.id, m.chat_id, m.sender_id, m.content, m.is_read, m.created_at, u.name, u.email
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id = $1`,
		messageID).Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Content, &msg.IsRead, &msg.CreatedAt,
		&msg.Sender.Name, &msg.Sender.Email)

	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	msg.Sender.ID = msg.SenderID

	return msg, nil
}

func (db *PostgresStore) MarkMessageAsRead(messageID uuid.UUID) (*models.Message, error) {
	result, err := db.Exec("UPDATE messages SET is_read = TRUE WHERE id = $1", messageID)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, ErrMessageNotFound
	}

	return db.GetMessageByID(messageID)
}

// DeleteMessage hard-deletes a message. A chat whose last_message_id pointed
// at it keeps the stale reference; list previews tolerate a missing message.
func (db *PostgresStore) DeleteMessage(messageID uuid.UUID) error {
	result, err := db.Exec("DELETE FROM messages WHERE id = $1", messageID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

func (db *PostgresStore) Close() error {
	return db.DB.Close()
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid in participants: %w", err)
		}
		ids[i] = id
	}
	return ids, nil
}
