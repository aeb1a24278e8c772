package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adityakumar841208/virtual-deal-room/internal/api"
	"github.com/adityakumar841208/virtual-deal-room/internal/auth"
	"github.com/adityakumar841208/virtual-deal-room/internal/config"
	"github.com/adityakumar841208/virtual-deal-room/internal/database"
	"github.com/adityakumar841208/virtual-deal-room/internal/logger"
	ws "github.com/adityakumar841208/virtual-deal-room/internal/websocket"
)

var log = logger.New("server")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	auth.InitJWTKey([]byte(cfg.JWTSecret))

	// Fall back to the in-memory store when no database is configured,
	// so the server can run in development without postgres.
	storeType := database.PostgreSQL
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		storeType = database.Memory
	}

	db, err := database.NewStore(storeType, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to store: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if pg, ok := db.(*database.PostgresStore); ok {
		if err := pg.Migrate(); err != nil {
			log.Error("Failed to run migrations: %v", err)
			os.Exit(1)
		}
	}
	log.Info("Connected to %s store", storeType)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	hub := ws.NewHub()

	authHandler := api.NewAuthHandler(db)
	chatHandler := api.NewChatHandler(db)
	messageHandler := api.NewMessageHandler(db, hub)

	// Public routes (no authentication required)
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	// Protected routes (authentication required)
	authorized := router.Group("/api")
	authorized.Use(api.AuthMiddleware())
	{
		authorized.GET("/auth/me", authHandler.GetMe)

		// Chat routes
		authorized.POST("/chats", chatHandler.CreateChat)
		authorized.GET("/chats/user/:userID", chatHandler.GetChatsForUser)
		authorized.GET("/chats/:chatID", chatHandler.GetChat)
		authorized.GET("/chats/:chatID/messages", chatHandler.GetMessages)

		// Message routes
		authorized.POST("/messages", messageHandler.SendMessage)
		authorized.DELETE("/messages/:messageID", messageHandler.DeleteMessage)
		authorized.PUT("/messages/:messageID/read", messageHandler.MarkMessageAsRead)
	}

	// WebSocket route. Browsers cannot set an Authorization header on a
	// websocket handshake, so the token travels as a query parameter.
	router.GET("/api/ws", func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		userUUID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID format in token"})
			return
		}

		c.Set("userID", userUUID)
		hub.ServeWS(c)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Give the server 5 seconds to finish processing remaining requests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Info("Server exited properly")
}
