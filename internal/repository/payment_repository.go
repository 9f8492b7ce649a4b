package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exemption-service/internal/domain"
)

// PaymentOrderRepository persists checkout orders.
type PaymentOrderRepository interface {
	Create(ctx context.Context, order *domain.PaymentOrder) error
	Update(ctx context.Context, order *domain.PaymentOrder) error
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.PaymentOrder, error)
	GetActiveByUser(ctx context.Context, userID string) (*domain.PaymentOrder, error)
	GetLatestByUser(ctx context.Context, userID string) (*domain.PaymentOrder, error)
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]domain.PaymentOrder, error)
}

type paymentOrderRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentOrderRepository constructs repository.
func NewPaymentOrderRepository(pool *pgxpool.Pool) PaymentOrderRepository {
	return &paymentOrderRepository{pool: pool}
}

const paymentOrderColumns = `id, user_id, provider_order_id, amount_cents, currency, status,
               approval_url, capture_id, created_at, updated_at`

func (r *paymentOrderRepository) Create(ctx context.Context, order *domain.PaymentOrder) error {
	const query = `
        INSERT INTO payment_orders (user_id, provider_order_id, amount_cents, currency, status, approval_url)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		order.UserID,
		order.ProviderOrderID,
		order.AmountCents,
		order.Currency,
		order.Status,
		order.ApprovalURL,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (r *paymentOrderRepository) Update(ctx context.Context, order *domain.PaymentOrder) error {
	const query = `
        UPDATE payment_orders SET status=$1, capture_id=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, order.Status, order.CaptureID, order.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *paymentOrderRepository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.PaymentOrder, error) {
	const query = `
        SELECT ` + paymentOrderColumns + `
        FROM payment_orders WHERE provider_order_id=$1`
	return r.fetchSingle(ctx, query, providerOrderID)
}

func (r *paymentOrderRepository) GetActiveByUser(ctx context.Context, userID string) (*domain.PaymentOrder, error) {
	const query = `
        SELECT ` + paymentOrderColumns + `
        FROM payment_orders
        WHERE user_id=$1 AND status IN ('CREATED','APPROVED')
        ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, userID)
}

func (r *paymentOrderRepository) GetLatestByUser(ctx context.Context, userID string) (*domain.PaymentOrder, error) {
	const query = `
        SELECT ` + paymentOrderColumns + `
        FROM payment_orders
        WHERE user_id=$1
        ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, userID)
}

func (r *paymentOrderRepository) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]domain.PaymentOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT ` + paymentOrderColumns + `
        FROM payment_orders
        WHERE status IN ('CREATED','APPROVED') AND updated_at < $1
        ORDER BY updated_at ASC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PaymentOrder
	for rows.Next() {
		var order domain.PaymentOrder
		if err := scanPaymentOrder(rows.Scan, &order); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

func (r *paymentOrderRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.PaymentOrder, error) {
	var order domain.PaymentOrder
	if err := scanPaymentOrder(r.pool.QueryRow(ctx, query, arg).Scan, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func scanPaymentOrder(scan func(...any) error, order *domain.PaymentOrder) error {
	return scan(
		&order.ID,
		&order.UserID,
		&order.ProviderOrderID,
		&order.AmountCents,
		&order.Currency,
		&order.Status,
		&order.ApprovalURL,
		&order.CaptureID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}
