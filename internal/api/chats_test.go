package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/adityakumar841208/virtual-deal-room/internal/database"
	"github.com/adityakumar841208/virtual-deal-room/internal/models"
)

func setupChatTest(t *testing.T) (*gin.Engine, *MockStore) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	mockStore := new(MockStore)

	handler := NewChatHandler(mockStore)
	router.POST("/chats", handler.CreateChat)
	router.GET("/chats/user/:userID", handler.GetChatsForUser)
	router.GET("/chats/:chatID", handler.GetChat)
	router.GET("/chats/:chatID/messages", handler.GetMessages)

	return router, mockStore
}

func TestCreateChat(t *testing.T) {
	router, mockStore := setupChatTest(t)

	u1 := uuid.New()
	u2 := uuid.New()
	chat := &models.Chat{
		ID:           uuid.New(),
		Title:        "Deal negotiation",
		Participants: []uuid.UUID{u1, u2},
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	mockStore.On("CreateChat", "Deal negotiation", []uuid.UUID{u1, u2}).Return(chat, nil)

	body, _ := json.Marshal(models.ChatRequest{Title: "Deal negotiation", Participants: []uuid.UUID{u1, u2}})
	req, _ := http.NewRequest("POST", "/chats", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var got models.Chat
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, chat.ID, got.ID)
	assert.Len(t, got.Participants, 2)
	mockStore.AssertExpectations(t)
}

func TestCreateChatDefaultTitle(t *testing.T) {
	router, mockStore := setupChatTest(t)

	u1 := uuid.New()
	u2 := uuid.New()
	chat := &models.Chat{ID: uuid.New(), Title: models.DefaultChatTitle, Participants: []uuid.UUID{u1, u2}}

	mockStore.On("CreateChat", models.DefaultChatTitle, []uuid.UUID{u1, u2}).Return(chat, nil)

	body, _ := json.Marshal(models.ChatRequest{Participants: []uuid.UUID{u1, u2}})
	req, _ := http.NewRequest("POST", "/chats", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockStore.AssertExpectations(t)
}

func TestCreateChatTooFewParticipants(t *testing.T) {
	u1 := uuid.New()

	tests := []struct {
		name         string
		participants []uuid.UUID
	}{
		{
			name:         "single participant",
			participants: []uuid.UUID{u1},
		},
		{
			name:         "empty participants",
			participants: []uuid.UUID{},
		},
		{
			name:         "duplicates collapse below two",
			participants: []uuid.UUID{u1, u1, u1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockStore := setupChatTest(t)

			body, _ := json.Marshal(models.ChatRequest{Participants: tt.participants})
			req, _ := http.NewRequest("POST", "/chats", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			// No chat persisted
			mockStore.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything)
		})
	}
}

func TestGetChat(t *testing.T) {
	router, mockStore := setupChatTest(t)

	chatID := uuid.New()
	chat := &models.Chat{ID: chatID, Title: "test", Participants: []uuid.UUID{uuid.New(), uuid.New()}}
	mockStore.On("GetChatByID", chatID).Return(chat, nil)

	req, _ := http.NewRequest("GET", "/chats/"+chatID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Chat
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, chatID, got.ID)
}

func TestGetChatNotFound(t *testing.T) {
	router, mockStore := setupChatTest(t)

	chatID := uuid.New()
	mockStore.On("GetChatByID", chatID).Return(nil, database.ErrChatNotFound)

	req, _ := http.NewRequest("GET", "/chats/"+chatID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChatsForUser(t *testing.T) {
	router, mockStore := setupChatTest(t)

	userID := uuid.New()
	now := time.Now().UTC()
	chats := []*models.Chat{
		{ID: uuid.New(), UpdatedAt: now},
		{ID: uuid.New(), UpdatedAt: now.Add(-time.Hour)},
	}
	mockStore.On("GetChatsForUser", userID).Return(chats, nil)

	req, _ := http.NewRequest("GET", "/chats/user/"+userID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []*models.Chat
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, chats[0].ID, got[0].ID)
}

func TestGetMessages(t *testing.T) {
	router, mockStore := setupChatTest(t)

	chatID := uuid.New()
	now := time.Now().UTC()
	messages := []*models.Message{
		{ID: uuid.New(), ChatID: chatID, Content: "first", CreatedAt: now.Add(-time.Minute)},
		{ID: uuid.New(), ChatID: chatID, Content: "second", CreatedAt: now},
	}
	mockStore.On("GetMessagesByChat", chatID).Return(messages, nil)

	req, _ := http.NewRequest("GET", "/chats/"+chatID.String()+"/messages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []*models.Message
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
}
