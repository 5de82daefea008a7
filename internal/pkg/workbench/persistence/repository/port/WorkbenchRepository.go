package repository

import (
	"context"
	"time"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
)

// ParticipantUpdate carries the mutable participant fields. Nil pointers mean
// "leave unchanged"; ClearStatus wins over Status.
type ParticipantUpdate struct {
	Name        *string
	Active      *bool
	Status      *string
	ClearStatus bool
}

// ConversationRepository defines persistence operations for conversations,
// their participants, and their message log.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, c workbench.Conversation) (string, error)
	GetConversation(ctx context.Context, id string, forParticipant string) (*workbench.Conversation, error)
	ListConversations(ctx context.Context, participantID string) ([]workbench.Conversation, error)

	AddParticipant(ctx context.Context, p workbench.Participant) error
	GetParticipant(ctx context.Context, conversationID, participantID string) (*workbench.Participant, error)
	ListParticipants(ctx context.Context, conversationID string) ([]workbench.Participant, error)
	UpdateParticipant(ctx context.Context, conversationID, participantID string, upd ParticipantUpdate) (*workbench.Participant, error)

	SaveMessage(ctx context.Context, m workbench.Message) (string, error)
	GetMessage(ctx context.Context, conversationID, messageID string) (*workbench.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int, beforeMessageID string) ([]workbench.Message, error)
	LastMessageAt(ctx context.Context, conversationID string) (*time.Time, error)
	// DeleteMessagesFrom removes the given message and everything after it,
	// returning the number of messages deleted.
	DeleteMessagesFrom(ctx context.Context, conversationID, messageID string) (int64, error)
}

// FileRepository defines persistence for versioned conversation attachments.
type FileRepository interface {
	// SaveFile stores content as the next version of f.Filename and returns
	// the stored metadata.
	SaveFile(ctx context.Context, f workbench.File, content []byte) (*workbench.File, error)
	ListFiles(ctx context.Context, conversationID string) ([]workbench.File, error)
	// GetFile returns metadata and content; version 0 means latest.
	GetFile(ctx context.Context, conversationID, filename string, version int) (*workbench.File, []byte, error)
	// DeleteFile removes all versions of filename, returning how many were removed.
	DeleteFile(ctx context.Context, conversationID, filename string) (int64, error)
}

// AssistantDirectory defines persistence for the assistant registry.
type AssistantDirectory interface {
	UpsertAssistant(ctx context.Context, a workbench.Assistant) error
	GetAssistant(ctx context.Context, id string) (*workbench.Assistant, error)
	ListAssistants(ctx context.Context) ([]workbench.Assistant, error)
}
