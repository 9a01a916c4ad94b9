package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/helpdesk/chat-service/internal/chat"
	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 32 * 1024
)

// inFrame is a client request on the socket.
type inFrame struct {
	Type       string   `json:"type"`
	ChatID     string   `json:"chat_id,omitempty"`
	Text       string   `json:"text,omitempty"`
	MessageIDs []string `json:"message_ids,omitempty"`
}

// Session binds a websocket client to at most one chat thread plus an
// optional chat-list watch. Binding a new chat always cancels the old
// thread subscription first.
type Session struct {
	id   string
	conn *websocket.Conn
	who  models.Identity
	hub  *Hub
	send chan []byte
	done chan struct{}

	mu          sync.Mutex
	boundChat   string
	cancelMsgs  chat.CancelFunc
	cancelChats chat.CancelFunc
	lastCount   int
	closeOnce   sync.Once
}

func (s *Session) readPump() {
	defer s.conn.Close()
	s.conn.SetReadLimit(readLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var f inFrame
		if err := json.Unmarshal(data, &f); err != nil {
			// invalid JSON from a client is not a reason to drop it
			continue
		}
		s.dispatch(f)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) dispatch(f inFrame) {
	ctx := context.Background()
	switch f.Type {
	case "bind":
		s.bind(f.ChatID)
	case "watch_chats":
		s.watchChats()
	case "send":
		s.sendMessage(ctx, f.Text)
	case "read":
		s.markRead(ctx, f.MessageIDs)
	default:
		s.queue(map[string]any{"type": "error", "error": "unknown frame type"})
	}
}

// bind subscribes the session to a chat's thread. The previous
// binding, if any, is canceled before the new one is created.
func (s *Session) bind(chatID string) {
	if _, err := s.hub.svc.GetChat(context.Background(), chatID); err != nil {
		s.queue(map[string]any{"type": "error", "error": "chat not found"})
		return
	}

	s.mu.Lock()
	if s.cancelMsgs != nil {
		s.cancelMsgs()
		s.cancelMsgs = nil
	}
	s.boundChat = chatID
	s.lastCount = 0
	s.mu.Unlock()

	cancel := s.hub.svc.SubscribeMessages(chatID, func(msgs []*models.Message) {
		s.pushMessages(chatID, msgs)
	})
	s.mu.Lock()
	if s.boundChat != chatID {
		// rebound while subscribing, drop this one
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancelMsgs = cancel
	s.mu.Unlock()
}

func (s *Session) watchChats() {
	s.mu.Lock()
	if s.cancelChats != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	cancel := s.hub.svc.SubscribeChats(s.who.UID, func(chats []*models.Chat) {
		s.queue(map[string]any{"type": "chats", "chats": chats})
	})
	s.mu.Lock()
	s.cancelChats = cancel
	s.mu.Unlock()
}

// pushMessages forwards a thread update and, when the thread grew, a
// message_new signal the UI uses to auto-scroll.
func (s *Session) pushMessages(chatID string, msgs []*models.Message) {
	s.mu.Lock()
	grew := len(msgs) > s.lastCount
	s.lastCount = len(msgs)
	s.mu.Unlock()

	s.queue(map[string]any{"type": "messages", "chat_id": chatID, "messages": msgs})
	if grew {
		s.queue(map[string]any{"type": "message_new", "chat_id": chatID})
	}
}

func (s *Session) sendMessage(ctx context.Context, text string) {
	s.mu.Lock()
	chatID := s.boundChat
	s.mu.Unlock()
	if chatID == "" {
		s.queue(map[string]any{"type": "error", "error": "no chat bound"})
		return
	}

	_, err := s.hub.svc.SendMessage(ctx, chatID, text, s.who, nil)
	if errors.Is(err, models.ErrEmptyMessage) {
		// interactive clients send blanks on stray enter keys, drop quietly
		return
	}
	if err != nil {
		s.queue(map[string]any{"type": "error", "error": err.Error()})
	}
}

// markRead acknowledges the listed messages, or every message in the
// bound chat authored by someone else when no ids are given.
func (s *Session) markRead(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		s.mu.Lock()
		chatID := s.boundChat
		s.mu.Unlock()
		if chatID == "" {
			return
		}
		for _, m := range s.hub.svc.Messages(ctx, chatID) {
			if m.SenderID != s.who.UID {
				ids = append(ids, m.ID)
			}
		}
	}
	for _, id := range ids {
		if err := s.hub.svc.MarkRead(ctx, id); err != nil {
			s.hub.log.Warn().Err(err).Str("message", id).Msg("read receipt")
		}
	}
}

func (s *Session) queue(payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case s.send <- b:
	default:
		s.hub.log.Warn().Str("session", s.id).Msg("slow ws client, dropping frame")
	}
}

func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.cancelMsgs != nil {
			s.cancelMsgs()
		}
		if s.cancelChats != nil {
			s.cancelChats()
		}
		s.mu.Unlock()
		close(s.done)
	})
}
