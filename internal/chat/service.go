// Package chat implements the chat engine: the chat directory, the
// message pipeline with its delivery-status state machine, and the
// subscription registry consumers observe collections through.
package chat

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/yourorg/helpdesk/chat-service/internal/attach"
	"github.com/yourorg/helpdesk/chat-service/internal/events"
	"github.com/yourorg/helpdesk/chat-service/internal/models"
	"github.com/yourorg/helpdesk/chat-service/internal/store"
)

// SupportPool is the synthetic scope unassigned support chats are
// visible to, and the uid welcome messages are authored under.
const SupportPool = "support"

// Service owns all reads and writes against the store. Every mutation
// persists the full snapshot before observers are notified, so a
// subscriber never sees state that did not hit disk.
type Service struct {
	mu    sync.Mutex
	store *store.Store
	reg   *registry
	pub   events.Publisher
	up    attach.Uploader
	clock clockwork.Clock
	log   zerolog.Logger
	acker *Acker

	lastIDMillis int64
	idSuffix     int64
	seq          int64
}

func NewService(st *store.Store, pub events.Publisher, up attach.Uploader, clock clockwork.Clock, log zerolog.Logger) *Service {
	s := &Service{
		store: st,
		reg:   newRegistry(log),
		pub:   pub,
		up:    up,
		clock: clock,
		log:   log,
	}
	for _, m := range st.Messages {
		if m.Seq > s.seq {
			s.seq = m.Seq
		}
	}
	return s
}

// SetAcker attaches the simulated delivery driver. Without one,
// status only advances on explicit acknowledgments.
func (s *Service) SetAcker(a *Acker) { s.acker = a }

// newID issues <prefix>-<unix ms> ids, suffixing a counter when the
// clock has not moved since the last id.
func (s *Service) newID(prefix string) string {
	ms := s.clock.Now().UnixMilli()
	if ms <= s.lastIDMillis {
		s.idSuffix++
		return fmt.Sprintf("%s-%d-%d", prefix, s.lastIDMillis, s.idSuffix)
	}
	s.lastIDMillis = ms
	s.idSuffix = 0
	return fmt.Sprintf("%s-%d", prefix, ms)
}

func (s *Service) nextSeq() int64 {
	s.seq++
	return s.seq
}

// visibleTo implements the chat-list filter: participants see their
// own chats, the support pool sees unassigned support chats, and an
// agent sees everything assigned to them.
func visibleTo(c *models.Chat, uid string) bool {
	if c.HasParticipant(uid) {
		return true
	}
	if c.IsSupport && uid == SupportPool && c.AssignedTo == "" {
		return true
	}
	return c.AssignedTo == uid
}

// chatsFor returns copies of the chats visible to uid, most recent
// activity first. Copies keep callers isolated from mutations that
// land after s.mu is released. Caller must hold s.mu.
func (s *Service) chatsFor(uid string) []*models.Chat {
	var out []*models.Chat
	for _, c := range s.store.Chats {
		if visibleTo(c, uid) {
			out = append(out, c.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageTime.After(out[j].LastMessageTime)
	})
	return out
}

// messagesFor returns copies of a chat's thread in creation order, so
// callers never observe the acker advancing status under them. Caller
// must hold s.mu.
func (s *Service) messagesFor(chatID string) []*models.Message {
	var out []*models.Message
	for _, m := range s.store.Messages {
		if m.ChatID == chatID {
			out = append(out, m.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})
	return out
}
