package workbench

import (
	"errors"
	"time"
)

// Domain-level errors for conversation behaviors
var (
	ErrInvalidConversation = errors.New("workbench: conversation/message mismatch")
	ErrNotParticipant      = errors.New("workbench: sender is not a participant in the conversation")
	ErrReadOnly            = errors.New("workbench: participant has read-only permission")
	ErrInactiveParticipant = errors.New("workbench: participant is not active in the conversation")
	ErrBackdatedMessage    = errors.New("workbench: message timestamp is backdated")
	ErrEmptyMessage        = errors.New("workbench: empty message content")
	ErrMessageNotFound     = errors.New("workbench: message not found in conversation")
)

// ConversationAggregate holds a conversation and its invariants.
//
// Notes:
//   - This aggregate is intentionally minimal and in-memory; the application
//     layer hydrates it with the needed participants and last message
//     timestamp before invoking its behaviors.
//   - Persistence is handled by repositories outside the domain; this type
//     only enforces rules and shapes intent.
type ConversationAggregate struct {
	Conversation  Conversation
	Participants  map[string]Participant // keyed by participant ID
	LastMessageAt *time.Time             // last persisted message CreatedAt, if known
}

// Participant returns the membership entry for id, if any.
func (c *ConversationAggregate) Participant(id string) (Participant, bool) {
	if c == nil || c.Participants == nil {
		return Participant{}, false
	}
	p, ok := c.Participants[id]
	return p, ok
}

// PostMessage applies domain rules and returns a validated message ready to persist.
//
// Validations:
// - Conversation/message identity must match
// - Sender must be an active participant with read/write permission
// - Message must not be backdated relative to LastMessageAt (if known)
// - Non-notice messages must have content
//
// Behavior:
// - If m.CreatedAt is zero, it is set to now.
// - On success, c.LastMessageAt is advanced to m.CreatedAt.
func (c *ConversationAggregate) PostMessage(m Message, now time.Time) (Message, error) {
	if m.ConversationID == "" || c.Conversation.ID == "" || m.ConversationID != c.Conversation.ID {
		return Message{}, ErrInvalidConversation
	}

	sender, ok := c.Participant(m.SenderID)
	if !ok {
		return Message{}, ErrNotParticipant
	}
	if !sender.Active {
		return Message{}, ErrInactiveParticipant
	}
	if sender.Permission != PermissionReadWrite {
		return Message{}, ErrReadOnly
	}
	m.SenderRole = sender.Role

	ts := m.CreatedAt
	if ts.IsZero() {
		if now.IsZero() {
			now = time.Now().UTC()
		}
		ts = now.UTC()
	}

	if c.LastMessageAt != nil && ts.Before(c.LastMessageAt.UTC()) {
		return Message{}, ErrBackdatedMessage
	}

	validated, err := NewMessage(m)
	if err != nil {
		return Message{}, err
	}
	validated.CreatedAt = ts

	c.LastMessageAt = &ts

	return *validated, nil
}

// AuthorizeRewind checks that requesterID may truncate the conversation's
// history. Rewind rewrites history, so it requires read/write permission.
func (c *ConversationAggregate) AuthorizeRewind(requesterID string) error {
	p, ok := c.Participant(requesterID)
	if !ok {
		return ErrNotParticipant
	}
	if p.Permission != PermissionReadWrite {
		return ErrReadOnly
	}
	return nil
}
