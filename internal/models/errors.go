package models

import "errors"

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("empty message with no attachments")
	ErrClosedChat      = errors.New("chat is closed")
)
