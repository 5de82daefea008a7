package usecase

import (
	"context"
	"fmt"
	"time"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// CreateConversationInput carries the required data to open a new conversation.
// The owner is attached as the first participant with read/write permission.
type CreateConversationInput struct {
	Title     string
	OwnerID   string
	OwnerName string
}

// CreateConversationUseCase handles creation of a conversation and its owner
// membership.
type CreateConversationUseCase struct {
	Repo repository.ConversationRepository
}

func NewCreateConversationUseCase(repo repository.ConversationRepository) *CreateConversationUseCase {
	return &CreateConversationUseCase{Repo: repo}
}

// Execute persists a conversation and registers the owner as participant.
func (uc *CreateConversationUseCase) Execute(ctx context.Context, in CreateConversationInput) (*workbench.Conversation, error) {
	if in.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}
	if in.Title == "" {
		in.Title = "New Conversation"
	}

	now := time.Now().UTC()
	conv := workbench.Conversation{Title: in.Title, OwnerID: in.OwnerID, CreatedAt: now}

	id, err := uc.Repo.CreateConversation(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.ID = id
	conv.Permission = workbench.PermissionReadWrite

	owner := workbench.Participant{
		ConversationID: id,
		ID:             in.OwnerID,
		Role:           workbench.ParticipantRoleUser,
		Name:           in.OwnerName,
		Active:         true,
		Permission:     workbench.PermissionReadWrite,
		JoinedAt:       now,
	}
	if err := uc.Repo.AddParticipant(ctx, owner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return &conv, nil
}
