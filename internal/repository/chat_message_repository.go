package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// ChatThread summarizes one user's inbox for the admin console.
type ChatThread struct {
	UserID        string
	UserName      string
	UserEmail     string
	LastMessageAt time.Time
	MessageCount  int64
}

// ChatMessageRepository manages inbox messages.
type ChatMessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListByUser(ctx context.Context, userID string, after *time.Time, limit int) ([]domain.ChatMessage, error)
	ListThreads(ctx context.Context, limit, offset int) ([]ChatThread, error)
}

type chatMessageRepository struct {
	pool *pgxpool.Pool
}

// NewChatMessageRepository builds repository.
func NewChatMessageRepository(pool *pgxpool.Pool) ChatMessageRepository {
	return &chatMessageRepository{pool: pool}
}

func (r *chatMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	const query = `
        INSERT INTO chat_messages (user_id, sender, sender_id, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.UserID,
		msg.Sender,
		msg.SenderID,
		msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *chatMessageRepository) ListByUser(ctx context.Context, userID string, after *time.Time, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	const base = `
        SELECT id, user_id, sender, sender_id, body, created_at
        FROM chat_messages WHERE user_id=$1`

	query := base + ` ORDER BY created_at ASC LIMIT $2`
	args := []any{userID, limit}
	if after != nil {
		query = base + ` AND created_at > $2 ORDER BY created_at ASC LIMIT $3`
		args = []any{userID, *after, limit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.Sender,
			&msg.SenderID,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *chatMessageRepository) ListThreads(ctx context.Context, limit, offset int) ([]ChatThread, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
        SELECT m.user_id, u.name, u.email, MAX(m.created_at), COUNT(*)
        FROM chat_messages m
        JOIN users u ON u.id = m.user_id
        GROUP BY m.user_id, u.name, u.email
        ORDER BY MAX(m.created_at) DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ChatThread
	for rows.Next() {
		var thread ChatThread
		if err := rows.Scan(&thread.UserID, &thread.UserName, &thread.UserEmail, &thread.LastMessageAt, &thread.MessageCount); err != nil {
			return nil, err
		}
		result = append(result, thread)
	}
	return result, rows.Err()
}
