package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// EligibilityRepository manages write-once questionnaire answer sets.
type EligibilityRepository interface {
	Create(ctx context.Context, record *domain.EligibilityRecord) error
	GetByUser(ctx context.Context, userID string) (*domain.EligibilityRecord, error)
}

type eligibilityRepository struct {
	pool *pgxpool.Pool
}

// NewEligibilityRepository constructs repository.
func NewEligibilityRepository(pool *pgxpool.Pool) EligibilityRepository {
	return &eligibilityRepository{pool: pool}
}

func (r *eligibilityRepository) Create(ctx context.Context, record *domain.EligibilityRecord) error {
	payload, err := json.Marshal(record.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	const query = `
        INSERT INTO eligibility_answers (user_id, answers, is_eligible)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.UserID,
		payload,
		record.IsEligible,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *eligibilityRepository) GetByUser(ctx context.Context, userID string) (*domain.EligibilityRecord, error) {
	const query = `
        SELECT id, user_id, answers, is_eligible, created_at
        FROM eligibility_answers WHERE user_id=$1`

	var record domain.EligibilityRecord
	var payload []byte
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&record.ID,
		&record.UserID,
		&payload,
		&record.IsEligible,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &record.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return &record, nil
}
