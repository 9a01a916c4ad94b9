package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourorg/helpdesk/chat-service/internal/attach"
	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

const attachmentFallback = "Sent an attachment"

// SendMessage appends a message to a chat and updates the chat's
// last-message projection in the same snapshot write. Attachments are
// uploaded through the injected seam before the message is recorded.
func (s *Service) SendMessage(ctx context.Context, chatID, text string, sender models.Identity, files []attach.File) (*models.Message, error) {
	if strings.TrimSpace(text) == "" && len(files) == 0 {
		return nil, models.ErrEmptyMessage
	}

	// Upload outside the lock; mutation fails cleanly if the chat
	// disappeared meanwhile (chats are never deleted, so in practice
	// only NotFound on a bad id).
	var attachments []models.Attachment
	for _, f := range files {
		a, err := s.up.Upload(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("attachment %q: %w", f.Name, err)
		}
		attachments = append(attachments, a)
	}

	s.mu.Lock()
	c := s.store.Chat(chatID)
	if c == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", models.ErrChatNotFound, chatID)
	}
	if c.Status == models.ChatClosed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", models.ErrClosedChat, chatID)
	}

	now := s.clock.Now()
	m := &models.Message{
		ID:          s.newID("msg"),
		ChatID:      chatID,
		Text:        text,
		SenderID:    sender.UID,
		SenderName:  sender.DisplayName(),
		CreatedAt:   now,
		Status:      models.StatusSent,
		IsVisitor:   c.IsSupport && sender.UID == c.VisitorID,
		Attachments: attachments,
		Seq:         s.nextSeq(),
	}
	s.store.Messages = append(s.store.Messages, m)

	prevLast, prevLastTime := c.LastMessage, c.LastMessageTime
	if text != "" {
		c.LastMessage = text
	} else {
		c.LastMessage = attachmentFallback
	}
	c.LastMessageTime = now

	if err := s.store.Save(); err != nil {
		s.store.Messages = s.store.Messages[:len(s.store.Messages)-1]
		c.LastMessage, c.LastMessageTime = prevLast, prevLastTime
		s.mu.Unlock()
		return nil, err
	}
	snap := m.Clone()
	s.mu.Unlock()

	if err := s.pub.MessageSent(ctx, snap); err != nil {
		s.log.Warn().Err(err).Str("message", snap.ID).Msg("publish message.sent")
	}
	if s.acker != nil {
		s.acker.Track(snap.ID)
	}
	s.reg.notify()
	return snap, nil
}

// Messages returns a chat's thread sorted by creation time.
func (s *Service) Messages(_ context.Context, chatID string) []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesFor(chatID)
}

// MarkDelivered acknowledges transport delivery of a message. A
// message already at or past delivered is left alone.
func (s *Service) MarkDelivered(ctx context.Context, msgID string) error {
	return s.advance(msgID, models.StatusDelivered)
}

// MarkRead acknowledges that the recipient saw the message. A message
// still in sent passes through delivered; the machine never skips a
// state and never regresses.
func (s *Service) MarkRead(ctx context.Context, msgID string) error {
	return s.advance(msgID, models.StatusRead)
}

func (s *Service) advance(msgID string, target models.MessageStatus) error {
	s.mu.Lock()
	m := s.store.Message(msgID)
	if m == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrMessageNotFound, msgID)
	}
	if m.Status.AtOrPast(target) {
		s.mu.Unlock()
		return nil
	}

	// Step one state at a time so the machine never skips: marking a
	// sent message read persists delivered first.
	for !m.Status.AtOrPast(target) {
		next := m.Status.Next()
		if next == m.Status {
			break
		}
		prev := m.Status
		m.Status = next
		if err := s.store.Save(); err != nil {
			m.Status = prev
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	s.reg.notify()
	return nil
}
