// Package client is the consuming side of the deal-room chat service:
// a REST caller plus a websocket session that reconciles fetched history
// with live room events into a single transcript.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/adityakumar841208/virtual-deal-room/internal/models"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client calls the chat service's REST surface
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the server at baseURL authenticating with token
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateChat creates a conversation with the given participants
func (c *Client) CreateChat(title string, participants []uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	err := c.do(http.MethodPost, "/api/chats", models.ChatRequest{
		Title:        title,
		Participants: participants,
	}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChat fetches a single chat
func (c *Client) GetChat(chatID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := c.do(http.MethodGet, "/api/chats/"+chatID.String(), nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChatsForUser lists the user's chats, most recently active first
func (c *Client) GetChatsForUser(userID uuid.UUID) ([]*models.Chat, error) {
	var chats []*models.Chat
	if err := c.do(http.MethodGet, "/api/chats/user/"+userID.String(), nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// GetMessages fetches the full transcript of a chat in createdAt order
func (c *Client) GetMessages(chatID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	if err := c.do(http.MethodGet, "/api/chats/"+chatID.String()+"/messages", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage persists a message. The returned message is how the
// sender's own UI learns of success; the live broadcast excludes the
// sender.
func (c *Client) SendMessage(chatID, senderID uuid.UUID, content string) (*models.Message, error) {
	var msg models.Message
	err := c.do(http.MethodPost, "/api/messages", models.MessageRequest{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead marks a message as read; already-read messages succeed too
func (c *Client) MarkRead(messageID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	if err := c.do(http.MethodPut, "/api/messages/"+messageID.String()+"/read", nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage hard-deletes a message
func (c *Client) DeleteMessage(messageID uuid.UUID) error {
	return c.do(http.MethodDelete, "/api/messages/"+messageID.String(), nil, nil)
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
