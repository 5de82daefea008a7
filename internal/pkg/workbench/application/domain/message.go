package workbench

import (
	"errors"
	"strings"
	"time"
)

// MessageType represents the kind of message content
// 0=chat, 1=note, 2=notice, 3=command
type MessageType int16

const (
	MessageTypeChat    MessageType = 0
	MessageTypeNote    MessageType = 1
	MessageTypeNotice  MessageType = 2
	MessageTypeCommand MessageType = 3
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeNote:
		return "note"
	case MessageTypeNotice:
		return "notice"
	case MessageTypeCommand:
		return "command"
	default:
		return "chat"
	}
}

// Message is an immutable log entry in a conversation. History is append-only
// except for the rewind operation, which truncates from a given message on.
type Message struct {
	ID             string          `db:"id"`
	ConversationID string          `db:"conversation_id"`
	SenderID       string          `db:"sender_id"`
	SenderRole     ParticipantRole `db:"sender_role"`
	CreatedAt      time.Time       `db:"created_at"`
	Content        string          `db:"content"`
	ContentType    string          `db:"content_type"`
	MsgType        MessageType     `db:"msg_type"`
	Metadata       *string         `db:"metadata"` // JSON string; nil if absent
	DedupeKey      *string         `db:"dedupe_key"`
}

// NewMessage normalizes and validates a message before persistence.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" || m.SenderID == "" {
		return nil, errors.New("conversation_id and sender_id are required")
	}

	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" && m.MsgType != MessageTypeNotice {
		return nil, ErrEmptyMessage
	}

	if m.ContentType == "" {
		m.ContentType = "text/plain"
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	return &m, nil
}
