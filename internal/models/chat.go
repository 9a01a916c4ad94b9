package models

import "time"

type ChatStatus string

const (
	ChatActive ChatStatus = "active"
	ChatClosed ChatStatus = "closed"
)

// Chat groups participants and their message thread. Support chats are
// opened by an anonymous visitor and sit in the pending queue until an
// agent claims them.
type Chat struct {
	ID              string     `json:"id"`
	Participants    []string   `json:"participants"`
	LastMessage     string     `json:"lastMessage"`
	LastMessageTime time.Time  `json:"lastMessageTime"`
	CreatedAt       time.Time  `json:"createdAt"`
	IsSupport       bool       `json:"isSupport,omitempty"`
	VisitorID       string     `json:"visitorId,omitempty"`
	Status          ChatStatus `json:"status"`
	AssignedTo      string     `json:"assignedTo,omitempty"`
}

// Clone returns a copy detached from the engine's live state, safe to
// marshal or hold while the original keeps mutating.
func (c *Chat) Clone() *Chat {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	return &cp
}

// HasParticipant reports whether uid is a member of the chat.
func (c *Chat) HasParticipant(uid string) bool {
	for _, p := range c.Participants {
		if p == uid {
			return true
		}
	}
	return false
}
