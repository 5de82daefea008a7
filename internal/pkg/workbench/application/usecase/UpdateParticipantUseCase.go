package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// UpdateParticipantInput mutates a membership entry: the active flag, display
// name, or the free-form status text assistants publish while working.
type UpdateParticipantInput struct {
	ConversationID string
	ParticipantID  string
	Update         repository.ParticipantUpdate
}

type UpdateParticipantUseCase struct {
	Repo repository.ConversationRepository
}

func NewUpdateParticipantUseCase(repo repository.ConversationRepository) *UpdateParticipantUseCase {
	return &UpdateParticipantUseCase{Repo: repo}
}

func (uc *UpdateParticipantUseCase) Execute(ctx context.Context, in UpdateParticipantInput) (*workbench.Participant, error) {
	if in.ConversationID == "" || in.ParticipantID == "" {
		return nil, fmt.Errorf("conversation_id and participant_id are required")
	}

	p, err := uc.Repo.UpdateParticipant(ctx, in.ConversationID, in.ParticipantID, in.Update)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return p, nil
}
