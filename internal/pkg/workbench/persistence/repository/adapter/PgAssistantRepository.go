package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

type PgAssistantRepository struct {
	pool *pgxpool.Pool
}

func NewPgAssistantRepository(pool *pgxpool.Pool) *PgAssistantRepository {
	return &PgAssistantRepository{pool: pool}
}

var _ repository.AssistantDirectory = (*PgAssistantRepository)(nil)

func (r *PgAssistantRepository) UpsertAssistant(ctx context.Context, a workbench.Assistant) error {
	if r == nil || r.pool == nil {
		return errors.New("PgAssistantRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO workbench.assistant (id, name, endpoint, capabilities, registered_at, last_seen)
		VALUES ($1::uuid, $2, $3, $4, now(), now())
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name,
		              endpoint = EXCLUDED.endpoint,
		              capabilities = EXCLUDED.capabilities,
		              last_seen = now()
	`, a.ID, a.Name, a.Endpoint, a.Capabilities)
	return err
}

func (r *PgAssistantRepository) GetAssistant(ctx context.Context, id string) (*workbench.Assistant, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgAssistantRepository: nil pool")
	}
	var a workbench.Assistant
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, endpoint, capabilities, registered_at, last_seen
		FROM workbench.assistant
		WHERE id = $1::uuid
	`, id).Scan(&a.ID, &a.Name, &a.Endpoint, &a.Capabilities, &a.RegisteredAt, &a.LastSeen)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PgAssistantRepository) ListAssistants(ctx context.Context) ([]workbench.Assistant, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgAssistantRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, endpoint, capabilities, registered_at, last_seen
		FROM workbench.assistant
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assistants []workbench.Assistant
	for rows.Next() {
		var a workbench.Assistant
		if err := rows.Scan(&a.ID, &a.Name, &a.Endpoint, &a.Capabilities, &a.RegisteredAt, &a.LastSeen); err != nil {
			return nil, err
		}
		assistants = append(assistants, a)
	}
	return assistants, rows.Err()
}
