package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// UploadFileInput stores content as the next version of Filename in the
// conversation. The uploader must be an active read/write participant.
type UploadFileInput struct {
	ConversationID string
	Filename       string
	ContentType    string
	Content        []byte
	UploaderID     string
}

type UploadFileUseCase struct {
	Files repository.FileRepository
	Convs repository.ConversationRepository
}

func NewUploadFileUseCase(files repository.FileRepository, convs repository.ConversationRepository) *UploadFileUseCase {
	return &UploadFileUseCase{Files: files, Convs: convs}
}

func (uc *UploadFileUseCase) Execute(ctx context.Context, in UploadFileInput) (*workbench.File, error) {
	if in.ConversationID == "" || in.Filename == "" || in.UploaderID == "" {
		return nil, fmt.Errorf("conversation_id, filename and uploader_id are required")
	}
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("file content is empty")
	}

	uploader, err := uc.Convs.GetParticipant(ctx, in.ConversationID, in.UploaderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workbench.ErrNotParticipant
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !uploader.Active {
		return nil, workbench.ErrInactiveParticipant
	}
	if uploader.Permission != workbench.PermissionReadWrite {
		return nil, workbench.ErrReadOnly
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	f, err := uc.Files.SaveFile(ctx, workbench.File{
		ConversationID: in.ConversationID,
		Filename:       in.Filename,
		ContentType:    contentType,
		CreatedBy:      in.UploaderID,
	}, in.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return f, nil
}
