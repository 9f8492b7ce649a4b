package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// ChangelogRepository reads release notes inserted by release tooling.
type ChangelogRepository interface {
	Create(ctx context.Context, entry *domain.ChangelogEntry) error
	ListAll(ctx context.Context) ([]domain.ChangelogEntry, error)
	LatestVersion(ctx context.Context) (string, error)
}

type changelogRepository struct {
	pool *pgxpool.Pool
}

// NewChangelogRepository constructs repository.
func NewChangelogRepository(pool *pgxpool.Pool) ChangelogRepository {
	return &changelogRepository{pool: pool}
}

func (r *changelogRepository) Create(ctx context.Context, entry *domain.ChangelogEntry) error {
	const query = `
        INSERT INTO changelog_entries (version, released_on, category, message)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.Version,
		entry.ReleasedOn,
		entry.Category,
		entry.Message,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *changelogRepository) ListAll(ctx context.Context) ([]domain.ChangelogEntry, error) {
	const query = `
        SELECT id, version, released_on, category, message, created_at
        FROM changelog_entries
        ORDER BY released_on DESC, version DESC, created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChangelogEntry
	for rows.Next() {
		var entry domain.ChangelogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Version,
			&entry.ReleasedOn,
			&entry.Category,
			&entry.Message,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *changelogRepository) LatestVersion(ctx context.Context) (string, error) {
	const query = `
        SELECT version FROM changelog_entries
        ORDER BY released_on DESC, created_at DESC LIMIT 1`
	var version string
	if err := r.pool.QueryRow(ctx, query).Scan(&version); err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return version, nil
}
