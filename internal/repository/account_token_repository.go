package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// AccountToken represents stored one-time tokens (email verification, password reset).
type AccountToken struct {
	ID        string
	UserID    string
	Purpose   domain.TokenPurpose
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// AccountTokenRepository manages one-time token persistence.
type AccountTokenRepository interface {
	Create(ctx context.Context, token *AccountToken) error
	GetByToken(ctx context.Context, purpose domain.TokenPurpose, token string) (*AccountToken, error)
	MarkUsed(ctx context.Context, id string) error
}

type accountTokenRepository struct {
	pool *pgxpool.Pool
}

// NewAccountTokenRepository constructs repository.
func NewAccountTokenRepository(pool *pgxpool.Pool) AccountTokenRepository {
	return &accountTokenRepository{pool: pool}
}

func (r *accountTokenRepository) Create(ctx context.Context, token *AccountToken) error {
	const query = `
        INSERT INTO account_tokens (user_id, purpose, token, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		token.UserID,
		token.Purpose,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *accountTokenRepository) GetByToken(ctx context.Context, purpose domain.TokenPurpose, tokenStr string) (*AccountToken, error) {
	const query = `
        SELECT id, user_id, purpose, token, expires_at, used_at, created_at
        FROM account_tokens WHERE purpose=$1 AND token=$2`
	var token AccountToken
	if err := r.pool.QueryRow(ctx, query, purpose, tokenStr).Scan(
		&token.ID,
		&token.UserID,
		&token.Purpose,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *accountTokenRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE account_tokens SET used_at=NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
