package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// GetConversationInput identifies the conversation and the caller; the
// returned conversation carries the caller's effective permission.
type GetConversationInput struct {
	ConversationID string
	CallerID       string
}

type GetConversationUseCase struct {
	Repo repository.ConversationRepository
}

func NewGetConversationUseCase(repo repository.ConversationRepository) *GetConversationUseCase {
	return &GetConversationUseCase{Repo: repo}
}

func (uc *GetConversationUseCase) Execute(ctx context.Context, in GetConversationInput) (*workbench.Conversation, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("conversation_id is required")
	}
	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID, in.CallerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
