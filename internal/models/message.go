package models

import "time"

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// rank orders the delivery states; a message only ever moves forward.
func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	}
	return -1
}

// AtOrPast reports whether s already reached target.
func (s MessageStatus) AtOrPast(target MessageStatus) bool {
	return s.rank() >= target.rank()
}

// Next returns the following delivery state. Read is terminal.
func (s MessageStatus) Next() MessageStatus {
	switch s {
	case StatusSent:
		return StatusDelivered
	case StatusDelivered:
		return StatusRead
	}
	return s
}

// Attachment is the processed record of an uploaded file.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Message is an append-only entry in a chat's thread. Seq is a
// process-wide insertion counter used as a tiebreak when two messages
// share the same CreatedAt.
type Message struct {
	ID          string        `json:"id"`
	ChatID      string        `json:"chatId"`
	Text        string        `json:"text"`
	SenderID    string        `json:"senderId"`
	SenderName  string        `json:"senderName"`
	CreatedAt   time.Time     `json:"createdAt"`
	Status      MessageStatus `json:"status"`
	IsVisitor   bool          `json:"isVisitor,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	Seq         int64         `json:"seq"`
}

// Clone returns a copy detached from the engine's live state, safe to
// marshal or hold while delivery acks keep advancing the original.
func (m *Message) Clone() *Message {
	cp := *m
	if m.Attachments != nil {
		cp.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	return &cp
}

// Before orders messages by creation time, falling back to insertion
// order when the timestamps collide.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.Seq < other.Seq
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
