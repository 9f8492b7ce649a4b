package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// DocumentRepository persists uploaded document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetBySubmissionCategory(ctx context.Context, submissionID string, category domain.DocumentCategory) (*domain.Document, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]domain.Document, error)
	SetVerified(ctx context.Context, id string, verified bool) error
	Delete(ctx context.Context, id string) error
}

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository constructs repository.
func NewDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	const query = `
        INSERT INTO documents (submission_id, category, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, verified, created_at`
	return r.pool.QueryRow(ctx, query,
		doc.SubmissionID,
		doc.Category,
		doc.StorageKey,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
	).Scan(&doc.ID, &doc.Verified, &doc.CreatedAt)
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	const query = `
        SELECT id, submission_id, category, storage_key, file_name, mime_type, size_bytes, verified, created_at
        FROM documents WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *documentRepository) GetBySubmissionCategory(ctx context.Context, submissionID string, category domain.DocumentCategory) (*domain.Document, error) {
	const query = `
        SELECT id, submission_id, category, storage_key, file_name, mime_type, size_bytes, verified, created_at
        FROM documents WHERE submission_id=$1 AND category=$2`

	var doc domain.Document
	if err := r.pool.QueryRow(ctx, query, submissionID, category).Scan(
		&doc.ID,
		&doc.SubmissionID,
		&doc.Category,
		&doc.StorageKey,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.Verified,
		&doc.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Document, error) {
	var doc domain.Document
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&doc.ID,
		&doc.SubmissionID,
		&doc.Category,
		&doc.StorageKey,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.Verified,
		&doc.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListBySubmission(ctx context.Context, submissionID string) ([]domain.Document, error) {
	const query = `
        SELECT id, submission_id, category, storage_key, file_name, mime_type, size_bytes, verified, created_at
        FROM documents WHERE submission_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(
			&doc.ID,
			&doc.SubmissionID,
			&doc.Category,
			&doc.StorageKey,
			&doc.FileName,
			&doc.MimeType,
			&doc.SizeBytes,
			&doc.Verified,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (r *documentRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	const query = `UPDATE documents SET verified=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, verified, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM documents WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
