package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

// Topics for outbound chat events.
const (
	TopicChatCreated  = "chat.created"
	TopicChatAssigned = "chat.assigned"
	TopicMessageSent  = "message.sent"
)

// Publisher emits domain events after the owning mutation has been
// persisted. Failures are the publisher's problem: callers log and
// move on, the mutation itself already succeeded.
type Publisher interface {
	ChatCreated(ctx context.Context, chat *models.Chat) error
	ChatAssigned(ctx context.Context, chat *models.Chat, agentID string) error
	MessageSent(ctx context.Context, msg *models.Message) error
	Close() error
}

// KafkaPublisher writes events to kafka, one topic per event type.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

func NewKafkaPublisher(brokers []string, log zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaPublisher{writer: w, log: log}
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *KafkaPublisher) ChatCreated(ctx context.Context, chat *models.Chat) error {
	return p.publish(ctx, TopicChatCreated, chat.ID, map[string]any{
		"chat_id":      chat.ID,
		"participants": chat.Participants,
		"is_support":   chat.IsSupport,
		"created_at":   chat.CreatedAt,
	})
}

func (p *KafkaPublisher) ChatAssigned(ctx context.Context, chat *models.Chat, agentID string) error {
	return p.publish(ctx, TopicChatAssigned, chat.ID, map[string]any{
		"chat_id":  chat.ID,
		"agent_id": agentID,
	})
}

func (p *KafkaPublisher) MessageSent(ctx context.Context, msg *models.Message) error {
	return p.publish(ctx, TopicMessageSent, msg.ChatID, map[string]any{
		"message_id": msg.ID,
		"chat_id":    msg.ChatID,
		"sender_id":  msg.SenderID,
		"created_at": msg.CreatedAt,
	})
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// Nop is used when no brokers are configured.
type Nop struct{}

func (Nop) ChatCreated(context.Context, *models.Chat) error          { return nil }
func (Nop) ChatAssigned(context.Context, *models.Chat, string) error { return nil }
func (Nop) MessageSent(context.Context, *models.Message) error       { return nil }
func (Nop) Close() error                                             { return nil }
