package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// RewindConversationInput truncates history to before MessageID: that message
// and everything after it are removed.
type RewindConversationInput struct {
	ConversationID string
	MessageID      string
	RequesterID    string
}

type RewindConversationUseCase struct {
	Repo repository.ConversationRepository
}

func NewRewindConversationUseCase(repo repository.ConversationRepository) *RewindConversationUseCase {
	return &RewindConversationUseCase{Repo: repo}
}

// Execute removes the message and all later ones, returning how many were deleted.
func (uc *RewindConversationUseCase) Execute(ctx context.Context, in RewindConversationInput) (int64, error) {
	if in.ConversationID == "" || in.MessageID == "" || in.RequesterID == "" {
		return 0, fmt.Errorf("conversation_id, message_id and requester_id are required")
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID, in.RequesterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	agg := workbench.ConversationAggregate{
		Conversation: *conv,
		Participants: map[string]workbench.Participant{},
	}
	requester, err := uc.Repo.GetParticipant(ctx, in.ConversationID, in.RequesterID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if requester != nil {
		agg.Participants[requester.ID] = *requester
	}
	if err := agg.AuthorizeRewind(in.RequesterID); err != nil {
		return 0, err
	}

	n, err := uc.Repo.DeleteMessagesFrom(ctx, in.ConversationID, in.MessageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, workbench.ErrMessageNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}
