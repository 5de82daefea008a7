package workbench

import "time"

// ParticipantRole expresses the kind of entity attached to a conversation
// 0 = user; 1 = assistant
type ParticipantRole int16

const (
	ParticipantRoleUser      ParticipantRole = 0
	ParticipantRoleAssistant ParticipantRole = 1
)

func (r ParticipantRole) String() string {
	if r == ParticipantRoleAssistant {
		return "assistant"
	}
	return "user"
}

// Participant captures membership of a user or assistant in a conversation.
// Status carries free-form progress text published by assistants while they
// work ("generating response..."); nil means no status.
// Primary key: (ConversationID, ID)
type Participant struct {
	ConversationID string          `db:"conversation_id"`
	ID             string          `db:"participant_id"`
	Role           ParticipantRole `db:"role"`
	Name           string          `db:"name"`
	Status         *string         `db:"status"`
	Active         bool            `db:"active"`
	Permission     Permission      `db:"permission"`
	JoinedAt       time.Time       `db:"joined_at"`
}
