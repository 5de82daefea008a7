package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// ListFilesInput wraps the conversation whose attachments are listed (latest
// version per filename).
type ListFilesInput struct {
	ConversationID string
}

type ListFilesUseCase struct {
	Files repository.FileRepository
}

func NewListFilesUseCase(files repository.FileRepository) *ListFilesUseCase {
	return &ListFilesUseCase{Files: files}
}

func (uc *ListFilesUseCase) Execute(ctx context.Context, in ListFilesInput) ([]workbench.File, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("conversation_id is required")
	}
	files, err := uc.Files.ListFiles(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return files, nil
}

// GetFileInput fetches one attachment; Version 0 means latest.
type GetFileInput struct {
	ConversationID string
	Filename       string
	Version        int
}

type GetFileUseCase struct {
	Files repository.FileRepository
}

func NewGetFileUseCase(files repository.FileRepository) *GetFileUseCase {
	return &GetFileUseCase{Files: files}
}

func (uc *GetFileUseCase) Execute(ctx context.Context, in GetFileInput) (*workbench.File, []byte, error) {
	if in.ConversationID == "" || in.Filename == "" {
		return nil, nil, fmt.Errorf("conversation_id and filename are required")
	}
	f, content, err := uc.Files.GetFile(ctx, in.ConversationID, in.Filename, in.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return f, content, nil
}

// DeleteFileInput removes all versions of a filename. The requester must be
// an active read/write participant.
type DeleteFileInput struct {
	ConversationID string
	Filename       string
	RequesterID    string
}

type DeleteFileUseCase struct {
	Files repository.FileRepository
	Convs repository.ConversationRepository
}

func NewDeleteFileUseCase(files repository.FileRepository, convs repository.ConversationRepository) *DeleteFileUseCase {
	return &DeleteFileUseCase{Files: files, Convs: convs}
}

func (uc *DeleteFileUseCase) Execute(ctx context.Context, in DeleteFileInput) error {
	if in.ConversationID == "" || in.Filename == "" || in.RequesterID == "" {
		return fmt.Errorf("conversation_id, filename and requester_id are required")
	}

	requester, err := uc.Convs.GetParticipant(ctx, in.ConversationID, in.RequesterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return workbench.ErrNotParticipant
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if requester.Permission != workbench.PermissionReadWrite {
		return workbench.ErrReadOnly
	}

	_, err = uc.Files.DeleteFile(ctx, in.ConversationID, in.Filename)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
