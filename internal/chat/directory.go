package chat

import (
	"context"
	"fmt"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

const (
	welcomeText    = "Welcome to our support chat! How can we help you today?"
	agentJoinedMsg = "Support agent has joined the chat"
	chatClosedMsg  = "Chat closed"
)

// CreateChat returns the id of an existing chat containing both users,
// or creates a new two-party chat. The dedup check only requires both
// ids to be present in participants; multi-party direct chats are not
// creatable here, so that looser check cannot misfire.
func (s *Service) CreateChat(ctx context.Context, currentUID, otherUID string) (string, error) {
	s.mu.Lock()
	for _, c := range s.store.Chats {
		if c.HasParticipant(currentUID) && c.HasParticipant(otherUID) {
			id := c.ID
			s.mu.Unlock()
			return id, nil
		}
	}

	now := s.clock.Now()
	c := &models.Chat{
		ID:              s.newID("chat"),
		Participants:    []string{currentUID, otherUID},
		LastMessage:     "",
		LastMessageTime: now,
		CreatedAt:       now,
		Status:          models.ChatActive,
	}
	s.store.Chats = append(s.store.Chats, c)
	if err := s.store.Save(); err != nil {
		s.store.Chats = s.store.Chats[:len(s.store.Chats)-1]
		s.mu.Unlock()
		return "", err
	}
	snap := c.Clone()
	s.mu.Unlock()

	if err := s.pub.ChatCreated(ctx, snap); err != nil {
		s.log.Warn().Err(err).Str("chat", snap.ID).Msg("publish chat.created")
	}
	s.reg.notify()
	return snap.ID, nil
}

// CreateSupportChat returns the visitor's active support chat if one
// exists, else opens a new one and sends the welcome message.
func (s *Service) CreateSupportChat(ctx context.Context, visitorID string) (string, error) {
	s.mu.Lock()
	for _, c := range s.store.Chats {
		if c.IsSupport && c.VisitorID == visitorID && c.Status == models.ChatActive {
			id := c.ID
			s.mu.Unlock()
			return id, nil
		}
	}

	now := s.clock.Now()
	c := &models.Chat{
		ID:              s.newID("support"),
		Participants:    []string{visitorID, SupportPool},
		LastMessage:     "",
		LastMessageTime: now,
		CreatedAt:       now,
		IsSupport:       true,
		VisitorID:       visitorID,
		Status:          models.ChatActive,
	}
	s.store.Chats = append(s.store.Chats, c)
	if err := s.store.Save(); err != nil {
		s.store.Chats = s.store.Chats[:len(s.store.Chats)-1]
		s.mu.Unlock()
		return "", err
	}
	snap := c.Clone()
	s.mu.Unlock()

	if err := s.pub.ChatCreated(ctx, snap); err != nil {
		s.log.Warn().Err(err).Str("chat", snap.ID).Msg("publish chat.created")
	}

	welcome := models.Identity{UID: SupportPool, Email: "support@helpdesk.com"}
	if _, err := s.SendMessage(ctx, snap.ID, welcomeText, welcome, nil); err != nil {
		s.log.Error().Err(err).Str("chat", snap.ID).Msg("welcome message")
	}

	s.reg.notify()
	return snap.ID, nil
}

// GetChat looks up a chat by id. The returned value is a copy,
// detached from any mutation that lands after the call.
func (s *Service) GetChat(_ context.Context, chatID string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.store.Chat(chatID)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrChatNotFound, chatID)
	}
	return c.Clone(), nil
}

// ListChats returns the chats visible to uid, sorted by most recent
// activity.
func (s *Service) ListChats(_ context.Context, uid string) []*models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatsFor(uid)
}

// PendingChats is the queue of active support chats no agent has
// claimed yet.
func (s *Service) PendingChats(_ context.Context) []*models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Chat
	for _, c := range s.chatsFor(SupportPool) {
		if c.IsSupport && c.Status == models.ChatActive && c.AssignedTo == "" {
			out = append(out, c)
		}
	}
	return out
}

// AssignChat claims a chat for an agent: sets assignedTo, adds the
// agent to participants if absent, and appends the join system
// message. All three effects land in a single snapshot write; a
// failed write rolls all of them back.
func (s *Service) AssignChat(ctx context.Context, chatID, agentID string) error {
	s.mu.Lock()
	c := s.store.Chat(chatID)
	if c == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrChatNotFound, chatID)
	}

	prevAssigned := c.AssignedTo
	prevParts := len(c.Participants)
	prevLast, prevLastTime := c.LastMessage, c.LastMessageTime

	c.AssignedTo = agentID
	if !c.HasParticipant(agentID) {
		c.Participants = append(c.Participants, agentID)
	}
	s.appendSystemLocked(c, agentJoinedMsg)
	if err := s.store.Save(); err != nil {
		c.AssignedTo = prevAssigned
		c.Participants = c.Participants[:prevParts]
		c.LastMessage, c.LastMessageTime = prevLast, prevLastTime
		s.store.Messages = s.store.Messages[:len(s.store.Messages)-1]
		s.mu.Unlock()
		return err
	}
	snap := c.Clone()
	s.mu.Unlock()

	if err := s.pub.ChatAssigned(ctx, snap, agentID); err != nil {
		s.log.Warn().Err(err).Str("chat", chatID).Msg("publish chat.assigned")
	}
	s.reg.notify()
	return nil
}

// CloseChat marks a chat closed. Closed support chats leave the
// visitor's dedup window, so the next CreateSupportChat opens a fresh
// one. Chats are never deleted.
func (s *Service) CloseChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	c := s.store.Chat(chatID)
	if c == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrChatNotFound, chatID)
	}
	if c.Status == models.ChatClosed {
		s.mu.Unlock()
		return nil
	}

	prevLast, prevLastTime := c.LastMessage, c.LastMessageTime

	c.Status = models.ChatClosed
	s.appendSystemLocked(c, chatClosedMsg)
	if err := s.store.Save(); err != nil {
		c.Status = models.ChatActive
		c.LastMessage, c.LastMessageTime = prevLast, prevLastTime
		s.store.Messages = s.store.Messages[:len(s.store.Messages)-1]
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.reg.notify()
	return nil
}

// appendSystemLocked adds a system-authored message and refreshes the
// chat's last-message projection. Caller must hold s.mu and save.
func (s *Service) appendSystemLocked(c *models.Chat, text string) {
	now := s.clock.Now()
	m := &models.Message{
		ID:         s.newID("msg"),
		ChatID:     c.ID,
		Text:       text,
		SenderID:   "system",
		SenderName: "System",
		CreatedAt:  now,
		Status:     models.StatusSent,
		Seq:        s.nextSeq(),
	}
	s.store.Messages = append(s.store.Messages, m)
	c.LastMessage = text
	c.LastMessageTime = now
}
