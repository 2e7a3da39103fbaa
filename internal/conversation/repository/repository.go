package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadagent_backend/internal/conversation/domain"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const conversationColumns = `id, lead_id, channel, status, end_reason, summary,
	started_at, last_activity_at, ended_at`

func scanConversation(row pgx.Row) (domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(
		&c.ID, &c.LeadID, &c.Channel, &c.Status, &c.EndReason, &c.Summary,
		&c.StartedAt, &c.LastActivityAt, &c.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, domain.ErrConversationNotFound
	}
	return c, err
}

func (r *Repository) Create(ctx context.Context, leadID uuid.UUID, channel string) (domain.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, lead_id, channel)
		VALUES ($1, $2, $3)
		RETURNING `+conversationColumns+`
	`, uuid.New(), leadID, channel)
	return scanConversation(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1
	`, id)
	return scanConversation(row)
}

// Touch bumps the activity timestamp used by the idle expiry job.
func (r *Repository) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversations SET last_activity_at = now() WHERE id = $1
	`, id)
	return err
}

// End marks the conversation ended. Ending an already ended
// conversation is a no-op that returns the stored row.
func (r *Repository) End(ctx context.Context, id uuid.UUID, reason, summary string) (domain.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE conversations
		SET status = $2,
			end_reason = CASE WHEN status = 'ended' THEN end_reason ELSE $3 END,
			summary = CASE WHEN $4 = '' THEN summary ELSE $4 END,
			ended_at = COALESCE(ended_at, now())
		WHERE id = $1
		RETURNING `+conversationColumns+`
	`, id, domain.StatusEnded, reason, summary)
	return scanConversation(row)
}

// ListIdleActive returns active conversations without activity since
// the cutoff. The scheduler expires them.
func (r *Repository) ListIdleActive(ctx context.Context, cutoff time.Time, limit int) ([]domain.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE status = 'active' AND last_activity_at < $1
		ORDER BY last_activity_at ASC
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *Repository) AppendMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, role, text, stage, audio_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, conversation_id, role, text, stage, audio_key, created_at
	`, uuid.New(), m.ConversationID, m.Role, m.Text, m.Stage, m.AudioKey)
	var out domain.Message
	err := row.Scan(&out.ID, &out.ConversationID, &out.Role, &out.Text, &out.Stage, &out.AudioKey, &out.CreatedAt)
	return out, err
}

func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, role, text, stage, audio_key, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Text, &m.Stage, &m.AudioKey, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
