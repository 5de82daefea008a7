package usecase

import (
	"context"
	"fmt"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// ListConversationsInput wraps the caller whose memberships are listed.
type ListConversationsInput struct {
	ParticipantID string
}

type ListConversationsUseCase struct {
	Repo repository.ConversationRepository
}

func NewListConversationsUseCase(repo repository.ConversationRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]workbench.Conversation, error) {
	if in.ParticipantID == "" {
		return nil, fmt.Errorf("participant_id is required")
	}
	convs, err := uc.Repo.ListConversations(ctx, in.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return convs, nil
}
