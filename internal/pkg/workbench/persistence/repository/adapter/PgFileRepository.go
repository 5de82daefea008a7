package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

type PgFileRepository struct {
	pool *pgxpool.Pool
}

func NewPgFileRepository(pool *pgxpool.Pool) *PgFileRepository {
	return &PgFileRepository{pool: pool}
}

var _ repository.FileRepository = (*PgFileRepository)(nil)

func (r *PgFileRepository) SaveFile(ctx context.Context, f workbench.File, content []byte) (*workbench.File, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgFileRepository: nil pool")
	}
	// Version assignment and insert in one statement keeps concurrent uploads
	// of the same filename from racing to the same version.
	err := r.pool.QueryRow(ctx, `
		INSERT INTO workbench.file (conversation_id, filename, version, content_type, size, content, created_by)
		VALUES ($1::uuid, $2,
			COALESCE((SELECT max(version) FROM workbench.file WHERE conversation_id = $1::uuid AND filename = $2), 0) + 1,
			$3, $4, $5, $6::uuid)
		RETURNING version, created_at
	`, f.ConversationID, f.Filename, f.ContentType, int64(len(content)), content, f.CreatedBy).Scan(&f.Version, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.Size = int64(len(content))
	return &f, nil
}

func (r *PgFileRepository) ListFiles(ctx context.Context, conversationID string) ([]workbench.File, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgFileRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (filename)
			conversation_id::text, filename, version, content_type, size, created_by::text, created_at
		FROM workbench.file
		WHERE conversation_id = $1::uuid
		ORDER BY filename, version DESC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []workbench.File
	for rows.Next() {
		var f workbench.File
		if err := rows.Scan(&f.ConversationID, &f.Filename, &f.Version, &f.ContentType, &f.Size, &f.CreatedBy, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *PgFileRepository) GetFile(ctx context.Context, conversationID, filename string, version int) (*workbench.File, []byte, error) {
	if r == nil || r.pool == nil {
		return nil, nil, errors.New("PgFileRepository: nil pool")
	}
	query := `
		SELECT conversation_id::text, filename, version, content_type, size, content, created_by::text, created_at
		FROM workbench.file
		WHERE conversation_id = $1::uuid AND filename = $2`
	args := []any{conversationID, filename}
	if version > 0 {
		query += ` AND version = $3`
		args = append(args, version)
	} else {
		query += ` ORDER BY version DESC LIMIT 1`
	}

	var f workbench.File
	var content []byte
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&f.ConversationID, &f.Filename, &f.Version, &f.ContentType, &f.Size, &content, &f.CreatedBy, &f.CreatedAt)
	if err != nil {
		return nil, nil, err
	}
	return &f, content, nil
}

func (r *PgFileRepository) DeleteFile(ctx context.Context, conversationID, filename string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgFileRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM workbench.file WHERE conversation_id = $1::uuid AND filename = $2
	`, conversationID, filename)
	if err != nil {
		return 0, err
	}
	if ct.RowsAffected() == 0 {
		return 0, pgx.ErrNoRows
	}
	return ct.RowsAffected(), nil
}
