package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type names emitted on conversation streams. Every mutation publishes
// its specific event plus EventConversationUpdated, so refetch-style clients
// only ever need one listener.
const (
	EventConversationUpdated = "conversation.updated"
	EventMessageCreated      = "message.created"
	EventMessageDeleted      = "message.deleted"
	EventParticipantCreated  = "participant.created"
	EventParticipantUpdated  = "participant.updated"
	EventFileCreated         = "file.created"
	EventFileDeleted         = "file.deleted"
)

// Event is a single notification on a conversation stream. Data is an opaque
// JSON document; subscribers that only refetch on receipt can ignore it.
type Event struct {
	ID             string          `json:"id"`
	Type           string          `json:"event"`
	ConversationID string          `json:"conversation_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// NewEvent stamps an event with a fresh ID and timestamp.
func NewEvent(eventType, conversationID string, data json.RawMessage) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC(),
		Data:           data,
	}
}
