package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// SubmissionFilter captures admin listing parameters.
type SubmissionFilter struct {
	Completed *bool
	Limit     int
	Offset    int
}

// SubmissionSummary pairs a submission with its document count for listings.
type SubmissionSummary struct {
	Submission    domain.Submission
	DocumentCount int64
	VerifiedCount int64
}

// SubmissionRepository persists document submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	Update(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	GetByUser(ctx context.Context, userID string) (*domain.Submission, error)
	ListWithFilter(ctx context.Context, filter SubmissionFilter) ([]SubmissionSummary, error)
	CountWithFilter(ctx context.Context, filter SubmissionFilter) (int64, error)
}

type submissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository constructs repository.
func NewSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &submissionRepository{pool: pool}
}

func (r *submissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	const query = `
        INSERT INTO submissions (user_id)
        VALUES ($1)
        RETURNING id, completed, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, sub.UserID).
		Scan(&sub.ID, &sub.Completed, &sub.CreatedAt, &sub.UpdatedAt)
}

func (r *submissionRepository) Update(ctx context.Context, sub *domain.Submission) error {
	const query = `
        UPDATE submissions SET completed=$1, started_at=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, sub.Completed, sub.StartedAt, sub.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	const query = `
        SELECT id, user_id, completed, started_at, created_at, updated_at
        FROM submissions WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *submissionRepository) GetByUser(ctx context.Context, userID string) (*domain.Submission, error) {
	const query = `
        SELECT id, user_id, completed, started_at, created_at, updated_at
        FROM submissions WHERE user_id=$1`
	return r.fetchSingle(ctx, query, userID)
}

func (r *submissionRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Submission, error) {
	var sub domain.Submission
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Completed,
		&sub.StartedAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sub, nil
}

func submissionFilterClauses(filter SubmissionFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		clauses = append(clauses, fmt.Sprintf("s.completed=$%d", len(args)))
	}
	return clauses, args
}

func (r *submissionRepository) ListWithFilter(ctx context.Context, filter SubmissionFilter) ([]SubmissionSummary, error) {
	clauses, args := submissionFilterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT s.id, s.user_id, s.completed, s.started_at, s.created_at, s.updated_at,
               COUNT(d.id), COUNT(d.id) FILTER (WHERE d.verified)
        FROM submissions s
        LEFT JOIN documents d ON d.submission_id = s.id
        WHERE %s
        GROUP BY s.id
        ORDER BY s.updated_at DESC LIMIT %d OFFSET %d`,
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SubmissionSummary
	for rows.Next() {
		var summary SubmissionSummary
		if err := rows.Scan(
			&summary.Submission.ID,
			&summary.Submission.UserID,
			&summary.Submission.Completed,
			&summary.Submission.StartedAt,
			&summary.Submission.CreatedAt,
			&summary.Submission.UpdatedAt,
			&summary.DocumentCount,
			&summary.VerifiedCount,
		); err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}

func (r *submissionRepository) CountWithFilter(ctx context.Context, filter SubmissionFilter) (int64, error) {
	clauses, args := submissionFilterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM submissions s WHERE %s`, strings.Join(clauses, " AND "))

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
