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

// SendMessageInput carries the data needed to post a new message.
// Content/type normalization and defaults are enforced by the domain
// aggregate, not here.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
	ContentType    string
	MsgType        workbench.MessageType
	Metadata       *string
	DedupeKey      *string
}

// SendMessageUseCase hydrates the conversation aggregate, applies posting
// rules, and persists the validated message.
type SendMessageUseCase struct {
	Repo repository.ConversationRepository
}

func NewSendMessageUseCase(repo repository.ConversationRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*workbench.Message, error) {
	if in.ConversationID == "" || in.SenderID == "" {
		return nil, fmt.Errorf("conversation_id and sender_id are required")
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID, in.SenderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	agg := workbench.ConversationAggregate{
		Conversation: *conv,
		Participants: map[string]workbench.Participant{},
	}
	sender, err := uc.Repo.GetParticipant(ctx, in.ConversationID, in.SenderID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if sender != nil {
		agg.Participants[sender.ID] = *sender
	}
	lastAt, err := uc.Repo.LastMessageAt(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	agg.LastMessageAt = lastAt

	msg, err := agg.PostMessage(workbench.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Content:        in.Content,
		ContentType:    in.ContentType,
		MsgType:        in.MsgType,
		Metadata:       in.Metadata,
		DedupeKey:      in.DedupeKey,
	}, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.SaveMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// A retried send with a dedupe key lands on the original row; return the
	// stored message so callers see canonical timestamps.
	stored, err := uc.Repo.GetMessage(ctx, in.ConversationID, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stored, nil
}
