package ws

import (
	"context"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yourorg/helpdesk/chat-service/internal/cache"
	"github.com/yourorg/helpdesk/chat-service/internal/chat"
	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

// Hub tracks live websocket sessions per user and flips presence as
// users connect and disconnect.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Session
	svc      *chat.Service
	presence *cache.Presence
	log      zerolog.Logger
}

func NewHub(svc *chat.Service, presence *cache.Presence, log zerolog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[string]*Session),
		svc:      svc,
		presence: presence,
		log:      log,
	}
}

// Handle runs one websocket session to completion. who is the
// resolved identity: an authenticated user, an agent, or a widget
// visitor.
func (h *Hub) Handle(conn *websocket.Conn, who models.Identity) {
	s := &Session{
		id:   uuid.NewString(),
		conn: conn,
		who:  who,
		hub:  h,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if _, ok := h.sessions[who.UID]; !ok {
		h.sessions[who.UID] = make(map[string]*Session)
	}
	h.sessions[who.UID][s.id] = s
	h.mu.Unlock()
	h.presence.Set(context.Background(), who.UID, true)

	h.log.Info().Str("uid", who.UID).Str("session", s.id).Msg("ws connected")

	go s.writePump()
	s.readPump()

	s.teardown()
	h.mu.Lock()
	delete(h.sessions[who.UID], s.id)
	if len(h.sessions[who.UID]) == 0 {
		delete(h.sessions, who.UID)
		h.presence.Set(context.Background(), who.UID, false)
	}
	h.mu.Unlock()

	h.log.Info().Str("uid", who.UID).Str("session", s.id).Msg("ws disconnected")
}
