package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// JoinConversationInput attaches a user or assistant to a conversation.
// Rejoining an existing member reactivates it and refreshes name/permission.
type JoinConversationInput struct {
	ConversationID string
	ParticipantID  string
	Role           workbench.ParticipantRole
	Name           string
	Permission     workbench.Permission
}

type JoinConversationUseCase struct {
	Repo repository.ConversationRepository
}

func NewJoinConversationUseCase(repo repository.ConversationRepository) *JoinConversationUseCase {
	return &JoinConversationUseCase{Repo: repo}
}

func (uc *JoinConversationUseCase) Execute(ctx context.Context, in JoinConversationInput) (*workbench.Participant, error) {
	if in.ConversationID == "" || in.ParticipantID == "" {
		return nil, fmt.Errorf("conversation_id and participant_id are required")
	}

	// The conversation must exist before anyone joins it.
	if _, err := uc.Repo.GetConversation(ctx, in.ConversationID, ""); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	p := workbench.Participant{
		ConversationID: in.ConversationID,
		ID:             in.ParticipantID,
		Role:           in.Role,
		Name:           in.Name,
		Active:         true,
		Permission:     in.Permission,
		JoinedAt:       time.Now().UTC(),
	}
	if err := uc.Repo.AddParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &p, nil
}
