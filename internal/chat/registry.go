package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

// CancelFunc tears down a subscription. Safe to call more than once;
// it waits out a delivery already in flight, so once it returns the
// subscriber's callback never fires again. Must not be called from
// inside the subscriber's own callback.
type CancelFunc func()

// subscriber serializes delivery and cancellation on mu: a callback
// never starts after cancel flipped done, and cancel cannot return
// while a callback is still running.
type subscriber struct {
	id   string
	run  func()
	mu   sync.Mutex
	done bool
}

func (sub *subscriber) deliver(log zerolog.Logger) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.done {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("subscriber", sub.id).Msg("subscriber callback panicked")
		}
	}()
	sub.run()
}

// registry replaces the reference design's poll loop: mutations push
// to every registered subscriber instead of each subscriber
// re-reading on a timer. Delivery is synchronous and one subscriber's
// panic never stops delivery to the rest.
type registry struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
	log  zerolog.Logger
}

func newRegistry(log zerolog.Logger) *registry {
	return &registry{subs: make(map[string]*subscriber), log: log}
}

func (r *registry) add(run func()) (*subscriber, CancelFunc) {
	sub := &subscriber{id: uuid.NewString(), run: run}
	r.mu.Lock()
	r.subs[sub.id] = sub
	r.mu.Unlock()

	cancel := func() {
		sub.mu.Lock()
		already := sub.done
		sub.done = true
		sub.mu.Unlock()
		if !already {
			r.mu.Lock()
			delete(r.subs, sub.id)
			r.mu.Unlock()
		}
	}
	return sub, cancel
}

func (r *registry) notify() {
	r.mu.RLock()
	list := make([]*subscriber, 0, len(r.subs))
	for _, sub := range r.subs {
		list = append(list, sub)
	}
	r.mu.RUnlock()

	for _, sub := range list {
		sub.deliver(r.log)
	}
}

// SubscribeChats delivers the chats visible to uid immediately, then
// again after every mutation, until canceled.
func (s *Service) SubscribeChats(uid string, fn func([]*models.Chat)) CancelFunc {
	sub, cancel := s.reg.add(func() {
		s.mu.Lock()
		chats := s.chatsFor(uid)
		s.mu.Unlock()
		fn(chats)
	})
	sub.deliver(s.log)
	return cancel
}

// SubscribeMessages delivers chatID's thread immediately, then again
// after every mutation, until canceled.
func (s *Service) SubscribeMessages(chatID string, fn func([]*models.Message)) CancelFunc {
	sub, cancel := s.reg.add(func() {
		s.mu.Lock()
		msgs := s.messagesFor(chatID)
		s.mu.Unlock()
		fn(msgs)
	})
	sub.deliver(s.log)
	return cancel
}
