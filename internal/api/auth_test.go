package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/adityakumar841208/virtual-deal-room/internal/auth"
	"github.com/adityakumar841208/virtual-deal-room/internal/database"
	"github.com/adityakumar841208/virtual-deal-room/internal/models"
)

// setupTestRouter creates a test router with the auth handler backed by
// the in-memory store
func setupTestRouter(t *testing.T) *gin.Engine {
	auth.InitJWTKey([]byte("test-secret-key-for-api-tests"))

	db := database.NewMemoryStore()
	handler := NewAuthHandler(db)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)
	router.GET("/me", AuthMiddleware(), handler.GetMe)

	return router
}

func TestRegister(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name       string
		input      models.UserRegistration
		wantStatus int
		wantError  bool
	}{
		{
			name: "valid registration",
			input: models.UserRegistration{
				Name:     "testuser",
				Email:    "test@example.com",
				Password: "password123",
			},
			wantStatus: http.StatusCreated,
			wantError:  false,
		},
		{
			name: "duplicate email",
			input: models.UserRegistration{
				Name:     "testuser2",
				Email:    "test@example.com",
				Password: "password456",
			},
			wantStatus: http.StatusConflict,
			wantError:  true,
		},
		{
			name: "invalid input",
			input: models.UserRegistration{
				Name:     "",
				Email:    "invalid-email",
				Password: "",
			},
			wantStatus: http.StatusBadRequest,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.input)
			assert.NoError(t, err)

			req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if !tt.wantError {
				var response models.UserSummary
				err = json.Unmarshal(w.Body.Bytes(), &response)
				assert.NoError(t, err)
				assert.Equal(t, tt.input.Name, response.Name)
				assert.Equal(t, tt.input.Email, response.Email)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	router := setupTestRouter(t)

	// Register a user to log in as
	reg := models.UserRegistration{
		Name:     "loginuser",
		Email:    "login@example.com",
		Password: "password123",
	}
	body, _ := json.Marshal(reg)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name       string
		input      models.UserLogin
		wantStatus int
	}{
		{
			name: "valid credentials",
			input: models.UserLogin{
				Email:    "login@example.com",
				Password: "password123",
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "wrong password",
			input: models.UserLogin{
				Email:    "login@example.com",
				Password: "wrongpassword",
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "unknown email",
			input: models.UserLogin{
				Email:    "nobody@example.com",
				Password: "password123",
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.input)
			req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var response struct {
					Token string              `json:"token"`
					User  *models.UserSummary `json:"user"`
				}
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.NotEmpty(t, response.Token)
				assert.Equal(t, "loginuser", response.User.Name)
			}
		})
	}
}

func TestGetMe(t *testing.T) {
	router := setupTestRouter(t)

	// Register and log in
	reg := models.UserRegistration{
		Name:     "meuser",
		Email:    "me@example.com",
		Password: "password123",
	}
	body, _ := json.Marshal(reg)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	login := models.UserLogin{Email: "me@example.com", Password: "password123"}
	body, _ = json.Marshal(login)
	req = httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var me models.UserSummary
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "meuser", me.Name)
	assert.Equal(t, "me@example.com", me.Email)
}
