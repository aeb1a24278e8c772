package client

import (
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/adityakumar841208/virtual-deal-room/internal/logger"
	"github.com/adityakumar841208/virtual-deal-room/internal/models"
	ws "github.com/adityakumar841208/virtual-deal-room/internal/websocket"
)

// TypingExpiry is how long a peer's typing indicator stays up without a
// fresh typing event. A lost stop-typing event or an ungraceful sender
// disconnect must not leave the indicator stuck.
const TypingExpiry = 3 * time.Second

var log = logger.New("client")

// Session is one live websocket connection plus the transcript of the
// currently open chat. History comes from REST; live events are merged
// on top. The server never echoes the local user's own sends, so a live
// message is appended without any id-based dedup.
type Session struct {
	client *Client
	userID uuid.UUID
	conn   *websocket.Conn

	writeMu sync.Mutex // serializes writes to conn

	mu           sync.Mutex
	activeChat   uuid.UUID
	transcript   []*models.Message
	peerTyping   bool
	typingTimer  *time.Timer
	typingGen    uint64 // invalidates expiry callbacks from superseded timers
	typingExpiry time.Duration

	done chan struct{}
}

// Connect dials the server's websocket endpoint and starts the session
func (c *Client) Connect(userID uuid.UUID) (*Session, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/api/ws"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		client:       c,
		userID:       userID,
		conn:         conn,
		typingExpiry: TypingExpiry,
		done:         make(chan struct{}),
	}

	go s.readLoop()
	return s, nil
}

// OpenChat switches the session to chatID: the previous room is left,
// history is fetched and replaces the transcript, then the room is
// joined. Messages published between the fetch and the join taking
// effect on the hub are not delivered; the next OpenChat picks them up
// from history.
func (s *Session) OpenChat(chatID uuid.UUID) error {
	s.mu.Lock()
	previous := s.activeChat
	s.mu.Unlock()

	if previous != uuid.Nil && previous != chatID {
		if err := s.emit(ws.EventLeaveChat, previous); err != nil {
			return err
		}
	}

	history, err := s.client.GetMessages(chatID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.activeChat = chatID
	s.transcript = history
	s.setPeerTypingLocked(false)
	s.mu.Unlock()

	return s.emit(ws.EventJoinChat, chatID)
}

// Send persists a message in the open chat and appends the REST response
// to the transcript. The broadcast echo is excluded server-side, so this
// is the only copy the local transcript sees.
func (s *Session) Send(content string) (*models.Message, error) {
	s.mu.Lock()
	chatID := s.activeChat
	s.mu.Unlock()

	msg, err := s.client.SendMessage(chatID, s.userID, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.activeChat == msg.ChatID {
		s.transcript = append(s.transcript, msg)
	}
	s.mu.Unlock()

	return msg, nil
}

// Typing signals the open chat's room that the local user is typing
func (s *Session) Typing() error {
	s.mu.Lock()
	chatID := s.activeChat
	s.mu.Unlock()
	return s.emit(ws.EventTyping, chatID)
}

// StopTyping clears the local user's typing signal
func (s *Session) StopTyping() error {
	s.mu.Lock()
	chatID := s.activeChat
	s.mu.Unlock()
	return s.emit(ws.EventStopTyping, chatID)
}

// Transcript returns a copy of the open chat's messages in order
func (s *Session) Transcript() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Message(nil), s.transcript...)
}

// PeerTyping reports whether another participant is currently typing
func (s *Session) PeerTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerTyping
}

// Close terminates the websocket connection
func (s *Session) Close() error {
	return s.conn.Close()
}

// Done is closed when the read loop exits
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) emit(event string, chatID uuid.UUID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(ws.Event{Event: event, ChatID: chatID})
}

func (s *Session) readLoop() {
	defer close(s.done)

	for {
		var evt ws.Event
		if err := s.conn.ReadJSON(&evt); err != nil {
			log.Debug("Read loop ended: %v", err)
			return
		}

		switch evt.Event {
		case ws.EventMessageReceived:
			s.handleMessage(evt)
		case ws.EventTyping:
			s.handleTyping(evt.ChatID, true)
		case ws.EventStopTyping:
			s.handleTyping(evt.ChatID, false)
		}
	}
}

func (s *Session) handleMessage(evt ws.Event) {
	var msg models.Message
	if err := json.Unmarshal(evt.Data, &msg); err != nil {
		log.Error("Bad message payload: %v", err)
		return
	}

	s.mu.Lock()
	if evt.ChatID != s.activeChat {
		s.mu.Unlock()
		return
	}

	// Own sends are already in the transcript via the REST response.
	if msg.SenderID == s.userID {
		s.mu.Unlock()
		return
	}

	s.transcript = append(s.transcript, &msg)
	s.mu.Unlock()

	// Best-effort read receipt for a message seen while the chat is open.
	go func() {
		if _, err := s.client.MarkRead(msg.ID); err != nil {
			log.Warn("Failed to mark message %s as read: %v", msg.ID, err)
		}
	}()
}

func (s *Session) handleTyping(chatID uuid.UUID, typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chatID != s.activeChat {
		return
	}
	s.setPeerTypingLocked(typing)
}

// setPeerTypingLocked must be called with s.mu held. Raising the
// indicator arms an expiry timer so it falls back to idle even when the
// stop event never arrives. Stop can return false for a timer whose
// callback has already fired and is waiting on s.mu, so every call bumps
// the generation and the callback only clears state when its generation
// is still current.
func (s *Session) setPeerTypingLocked(typing bool) {
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.typingGen++

	s.peerTyping = typing
	if !typing {
		return
	}

	chatID := s.activeChat
	gen := s.typingGen
	s.typingTimer = time.AfterFunc(s.typingExpiry, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.typingGen == gen && s.activeChat == chatID {
			s.peerTyping = false
		}
	})
}
