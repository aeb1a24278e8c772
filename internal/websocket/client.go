package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
)

// Client represents one connected websocket session
type Client struct {
	UserID uuid.UUID

	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// closeSend closes the outbound channel exactly once, which in turn
// terminates the write pump.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// ServeWS upgrades the request to a websocket connection and starts the
// read/write pumps. The caller identity must already be in the gin
// context under "userID".
func (h *Hub) ServeWS(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		log.Warn("No userID in context, rejecting connection from %s", c.Request.RemoteAddr)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		log.Error("Invalid UUID in context from %s", c.Request.RemoteAddr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user identification"})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// The browser origin is already constrained by the CORS layer.
			return true
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		UserID: userUUID,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
	}

	go client.readPump()
	go client.writePump()
	log.Info("Client %s connected", client.UserID)
}

// readPump pumps inbound events from the websocket connection into the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading from client %s: %v", c.UserID, err)
			} else {
				log.Info("Client %s closed connection: %v", c.UserID, err)
			}
			break
		}

		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Error("Error unmarshaling event from client %s: %v", c.UserID, err)
			c.sendError("Invalid event format")
			continue
		}

		if evt.ChatID == uuid.Nil {
			log.Debug("Event %q without chat id from client %s", evt.Event, c.UserID)
			c.sendError("Chat ID required")
			continue
		}

		switch evt.Event {
		case EventJoinChat:
			c.hub.Join(c, evt.ChatID)
		case EventLeaveChat:
			c.hub.Leave(c, evt.ChatID)
		case EventTyping, EventStopTyping:
			// Ephemeral: relayed immediately, never persisted.
			c.hub.Publish(evt.ChatID, evt.Event, nil, c.UserID)
		default:
			log.Warn("Unknown event %q from client %s", evt.Event, c.UserID)
			c.sendError("Unknown event type")
		}
	}
}

// sendError queues an error event for the client, dropping it if the
// outbound buffer is full.
func (c *Client) sendError(msg string) {
	data, err := json.Marshal(gin.H{"message": msg})
	if err != nil {
		log.Error("Failed to marshal error payload for client %s: %v", c.UserID, err)
		return
	}
	raw, err := json.Marshal(Event{Event: EventError, Data: data})
	if err != nil {
		log.Error("Failed to marshal error event for client %s: %v", c.UserID, err)
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

// writePump pumps events from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
