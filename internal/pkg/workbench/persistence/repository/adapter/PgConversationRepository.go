package adapter

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

var _ repository.ConversationRepository = (*PgConversationRepository)(nil)

func (r *PgConversationRepository) CreateConversation(ctx context.Context, c workbench.Conversation) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgConversationRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx,
		"INSERT INTO workbench.conversation (title, owner_id, created_at) VALUES ($1, $2::uuid, $3) RETURNING id::text",
		c.Title, c.OwnerID, c.CreatedAt,
	).Scan(&id)
	return id, err
}

func (r *PgConversationRepository) GetConversation(ctx context.Context, id string, forParticipant string) (*workbench.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	var c workbench.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, title, owner_id::text, created_at
		FROM workbench.conversation
		WHERE id = $1::uuid
	`, id).Scan(&c.ID, &c.Title, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	// Effective permission for the caller: owners write, otherwise whatever
	// their participant row grants. Non-participants read.
	c.Permission = workbench.PermissionRead
	if forParticipant != "" {
		if forParticipant == c.OwnerID {
			c.Permission = workbench.PermissionReadWrite
		} else {
			var perm workbench.Permission
			err := r.pool.QueryRow(ctx, `
				SELECT permission FROM workbench.participant
				WHERE conversation_id = $1::uuid AND participant_id = $2::uuid
			`, id, forParticipant).Scan(&perm)
			if err == nil {
				c.Permission = perm
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
		}
	}
	return &c, nil
}

func (r *PgConversationRepository) ListConversations(ctx context.Context, participantID string) ([]workbench.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, c.title, c.owner_id::text, c.created_at, p.permission
		FROM workbench.conversation c
		JOIN workbench.participant p ON p.conversation_id = c.id
		WHERE p.participant_id = $1::uuid
		ORDER BY c.created_at DESC
	`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []workbench.Conversation
	for rows.Next() {
		var c workbench.Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.OwnerID, &c.CreatedAt, &c.Permission); err != nil {
			return nil, err
		}
		if c.OwnerID == participantID {
			c.Permission = workbench.PermissionReadWrite
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *PgConversationRepository) AddParticipant(ctx context.Context, p workbench.Participant) error {
	if r == nil || r.pool == nil {
		return errors.New("PgConversationRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO workbench.participant (conversation_id, participant_id, role, name, status, active, permission, joined_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (conversation_id, participant_id)
		DO UPDATE SET role = EXCLUDED.role,
		              name = EXCLUDED.name,
		              active = EXCLUDED.active,
		              permission = EXCLUDED.permission
	`, p.ConversationID, p.ID, p.Role, p.Name, p.Status, p.Active, p.Permission, p.JoinedAt)
	return err
}

func (r *PgConversationRepository) GetParticipant(ctx context.Context, conversationID, participantID string) (*workbench.Participant, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	var p workbench.Participant
	err := r.pool.QueryRow(ctx, `
		SELECT conversation_id::text, participant_id::text, role, name, status, active, permission, joined_at
		FROM workbench.participant
		WHERE conversation_id = $1::uuid AND participant_id = $2::uuid
	`, conversationID, participantID).Scan(&p.ConversationID, &p.ID, &p.Role, &p.Name, &p.Status, &p.Active, &p.Permission, &p.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgConversationRepository) ListParticipants(ctx context.Context, conversationID string) ([]workbench.Participant, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT conversation_id::text, participant_id::text, role, name, status, active, permission, joined_at
		FROM workbench.participant
		WHERE conversation_id = $1::uuid
		ORDER BY joined_at, participant_id
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []workbench.Participant
	for rows.Next() {
		var p workbench.Participant
		if err := rows.Scan(&p.ConversationID, &p.ID, &p.Role, &p.Name, &p.Status, &p.Active, &p.Permission, &p.JoinedAt); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func (r *PgConversationRepository) UpdateParticipant(ctx context.Context, conversationID, participantID string, upd repository.ParticipantUpdate) (*workbench.Participant, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}

	sets := make([]string, 0, 3)
	args := []any{conversationID, participantID}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if upd.Name != nil {
		sets = append(sets, "name = "+arg(*upd.Name))
	}
	if upd.Active != nil {
		sets = append(sets, "active = "+arg(*upd.Active))
	}
	if upd.ClearStatus {
		sets = append(sets, "status = NULL")
	} else if upd.Status != nil {
		sets = append(sets, "status = "+arg(*upd.Status))
	}
	if len(sets) == 0 {
		return r.GetParticipant(ctx, conversationID, participantID)
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE workbench.participant
		SET `+strings.Join(sets, ", ")+`
		WHERE conversation_id = $1::uuid AND participant_id = $2::uuid
	`, args...)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return r.GetParticipant(ctx, conversationID, participantID)
}

func (r *PgConversationRepository) SaveMessage(ctx context.Context, m workbench.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgConversationRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO workbench.message (
			conversation_id, sender_id, sender_role, created_at, content, content_type, msg_type, metadata, dedupe_key
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, COALESCE($8::jsonb, NULL), $9)
		ON CONFLICT (conversation_id, dedupe_key) WHERE dedupe_key IS NOT NULL DO NOTHING
		RETURNING id::text
	`, m.ConversationID, m.SenderID, m.SenderRole, m.CreatedAt, m.Content, m.ContentType, m.MsgType, m.Metadata, m.DedupeKey).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) && m.DedupeKey != nil {
		// Retried send with the same dedupe key: hand back the original row.
		err = r.pool.QueryRow(ctx, `
			SELECT id::text FROM workbench.message
			WHERE conversation_id = $1::uuid AND dedupe_key = $2
		`, m.ConversationID, *m.DedupeKey).Scan(&id)
	}
	return id, err
}

func (r *PgConversationRepository) GetMessage(ctx context.Context, conversationID, messageID string) (*workbench.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	var m workbench.Message
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, conversation_id::text, sender_id::text, sender_role, created_at, content, content_type, msg_type, metadata::text, dedupe_key
		FROM workbench.message
		WHERE conversation_id = $1::uuid AND id = $2::uuid
	`, conversationID, messageID).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderRole, &m.CreatedAt, &m.Content, &m.ContentType, &m.MsgType, &m.Metadata, &m.DedupeKey)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgConversationRepository) ListMessages(ctx context.Context, conversationID string, limit int, beforeMessageID string) ([]workbench.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id::text, conversation_id::text, sender_id::text, sender_role, created_at, content, content_type, msg_type, metadata::text, dedupe_key
		FROM workbench.message
		WHERE conversation_id = $1::uuid`
	args := []any{conversationID}
	if beforeMessageID != "" {
		query += `
		AND (created_at, id) < (SELECT created_at, id FROM workbench.message WHERE id = $2::uuid)`
		args = append(args, beforeMessageID)
	}
	query += `
		ORDER BY created_at DESC, id DESC
		LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []workbench.Message
	for rows.Next() {
		var m workbench.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderRole, &m.CreatedAt, &m.Content, &m.ContentType, &m.MsgType, &m.Metadata, &m.DedupeKey); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	// Rows come back newest-first for the LIMIT; callers want history order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *PgConversationRepository) LastMessageAt(ctx context.Context, conversationID string) (*time.Time, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	var ts *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT max(created_at) FROM workbench.message WHERE conversation_id = $1::uuid
	`, conversationID).Scan(&ts)
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (r *PgConversationRepository) DeleteMessagesFrom(ctx context.Context, conversationID, messageID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgConversationRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM workbench.message
		WHERE conversation_id = $1::uuid
		AND (created_at, id) >= (SELECT created_at, id FROM workbench.message WHERE conversation_id = $1::uuid AND id = $2::uuid)
	`, conversationID, messageID)
	if err != nil {
		return 0, err
	}
	if ct.RowsAffected() == 0 {
		return 0, pgx.ErrNoRows
	}
	return ct.RowsAffected(), nil
}
