package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// GetMessagesInput pages through a conversation's history. Before, when set,
// returns only messages strictly older than that message.
type GetMessagesInput struct {
	ConversationID string
	Limit          int
	Before         string
}

type GetMessagesUseCase struct {
	Repo repository.ConversationRepository
}

func NewGetMessagesUseCase(repo repository.ConversationRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Repo: repo}
}

func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) ([]workbench.Message, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("conversation_id is required")
	}

	msgs, err := uc.Repo.ListMessages(ctx, in.ConversationID, in.Limit, in.Before)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}

// GetMessageInput identifies a single message within a conversation.
type GetMessageInput struct {
	ConversationID string
	MessageID      string
}

type GetMessageUseCase struct {
	Repo repository.ConversationRepository
}

func NewGetMessageUseCase(repo repository.ConversationRepository) *GetMessageUseCase {
	return &GetMessageUseCase{Repo: repo}
}

func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) (*workbench.Message, error) {
	if in.ConversationID == "" || in.MessageID == "" {
		return nil, fmt.Errorf("conversation_id and message_id are required")
	}

	msg, err := uc.Repo.GetMessage(ctx, in.ConversationID, in.MessageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msg, nil
}
