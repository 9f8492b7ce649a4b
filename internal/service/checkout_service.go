package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/exemption-service/internal/config"
	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/events"
	"github.com/spec-kit/exemption-service/internal/paypal"
	"github.com/spec-kit/exemption-service/internal/repository"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

// Locker guards against concurrent checkout starts for the same user.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string)
}

// CheckoutService is the single checkout orchestrator: it owns order state
// end to end, from provider order creation to capture and reconciliation.
type CheckoutService struct {
	orders     repository.PaymentOrderRepository
	users      repository.UserRepository
	provider   paypal.Provider
	dispatcher events.Dispatcher
	locker     Locker
	cfg        config.CheckoutConfig
	logger     *zap.Logger
}

// CheckoutDependencies bundles requirements for the checkout service.
type CheckoutDependencies struct {
	OrderRepo  repository.PaymentOrderRepository
	UserRepo   repository.UserRepository
	Provider   paypal.Provider
	Dispatcher events.Dispatcher
	Locker     Locker
}

// NewCheckoutService constructs the service.
func NewCheckoutService(cfg config.CheckoutConfig, deps CheckoutDependencies, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		orders:     deps.OrderRepo,
		users:      deps.UserRepo,
		provider:   deps.Provider,
		dispatcher: deps.Dispatcher,
		locker:     deps.Locker,
		cfg:        cfg,
		logger:     logger,
	}
}

// StartCheckout creates (or returns the pending) flat-fee order for the user
// and hands back the provider approval URL for the browser to navigate to.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID string) (*domain.PaymentOrder, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	if user.PaymentStatus == domain.PaymentStatusPaid {
		return nil, apperrors.NewConflict("service fee already paid", nil)
	}

	if s.locker != nil {
		key := "checkout:" + userID
		acquired, err := s.locker.Acquire(ctx, key, 30*time.Second)
		if err != nil {
			s.logger.Warn("checkout lock unavailable", zap.Error(err))
		} else if !acquired {
			return nil, apperrors.NewConflict("checkout already in progress", nil)
		} else {
			defer s.locker.Release(ctx, key)
		}
	}

	// Re-posting while an order is pending returns the existing approval URL.
	if existing, err := s.orders.GetActiveByUser(ctx, userID); err == nil {
		return existing, nil
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	created, err := s.provider.CreateOrder(ctx, paypal.CreateOrderInput{
		Amount:    s.cfg.Amount(),
		Currency:  s.cfg.Currency,
		ReturnURL: s.cfg.ReturnBaseURL + "/api/v1/payments/return",
		CancelURL: s.cfg.ReturnBaseURL + "/api/v1/payments/cancel",
	})
	if err != nil {
		return nil, apperrors.NewProviderError("paypal", err)
	}
	if created.ApprovalURL == "" {
		return nil, apperrors.NewProviderError("paypal", fmt.Errorf("order %s missing approval link", created.ID))
	}

	order := &domain.PaymentOrder{
		UserID:          userID,
		ProviderOrderID: created.ID,
		AmountCents:     s.cfg.AmountCents,
		Currency:        s.cfg.Currency,
		Status:          domain.PaymentOrderStatusCreated,
		ApprovalURL:     created.ApprovalURL,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// HandleReturn captures the approved order and returns the redirect target
// for the browser: the success URL with outcome query parameters, or the
// fixed failure page.
func (s *CheckoutService) HandleReturn(ctx context.Context, providerOrderID string) string {
	if providerOrderID == "" {
		return withQuery(s.cfg.FailureURL, map[string]string{"status": "failed"})
	}

	order, err := s.orders.GetByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		s.logger.Warn("return callback for unknown order", zap.String("provider_order_id", providerOrderID), zap.Error(err))
		return withQuery(s.cfg.FailureURL, map[string]string{"status": "failed"})
	}

	// A repeated callback for a captured order stays a success.
	if order.Status == domain.PaymentOrderStatusCaptured {
		return s.successURL(order)
	}
	if order.Status.Terminal() {
		return withQuery(s.cfg.FailureURL, map[string]string{"status": "failed", "order_id": order.ProviderOrderID})
	}

	captured, err := s.provider.CaptureOrder(ctx, providerOrderID)
	if err != nil || captured.Status != paypal.OrderStatusCompleted {
		if err != nil {
			s.logger.Error("capture failed", zap.String("provider_order_id", providerOrderID), zap.Error(err))
		}
		s.markFailed(ctx, order)
		return withQuery(s.cfg.FailureURL, map[string]string{"status": "failed", "order_id": order.ProviderOrderID})
	}

	if err := s.finalizeCapture(ctx, order, captured.CaptureID); err != nil {
		s.logger.Error("finalize capture", zap.String("order_id", order.ID), zap.Error(err))
		return withQuery(s.cfg.FailureURL, map[string]string{"status": "failed", "order_id": order.ProviderOrderID})
	}
	return s.successURL(order)
}

// HandleCancel marks the pending order cancelled and returns the failure
// redirect with a cancelled outcome.
func (s *CheckoutService) HandleCancel(ctx context.Context, providerOrderID string) string {
	if order, err := s.orders.GetByProviderOrderID(ctx, providerOrderID); err == nil && !order.Status.Terminal() {
		order.Status = domain.PaymentOrderStatusCancelled
		if err := s.orders.Update(ctx, order); err != nil {
			s.logger.Error("mark cancelled", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	return withQuery(s.cfg.FailureURL, map[string]string{"status": "cancelled"})
}

// PendingOrder returns the user's active order, if any.
func (s *CheckoutService) PendingOrder(ctx context.Context, userID string) (*domain.PaymentOrder, error) {
	order, err := s.orders.GetActiveByUser(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("payment order", nil)
		}
		return nil, err
	}
	return order, nil
}

// Reconcile sweeps stale non-terminal orders against the provider so stored
// payment state cannot silently diverge from provider state.
func (s *CheckoutService) Reconcile(ctx context.Context) error {
	staleAfter := time.Duration(s.cfg.ReconcileStaleAfterMin) * time.Minute
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}

	stale, err := s.orders.ListStale(ctx, time.Now().Add(-staleAfter), 50)
	if err != nil {
		return err
	}

	for _, order := range stale {
		remote, err := s.provider.GetOrder(ctx, order.ProviderOrderID)
		if err != nil {
			s.logger.Warn("reconcile lookup failed", zap.String("provider_order_id", order.ProviderOrderID), zap.Error(err))
			continue
		}

		switch remote.Status {
		case paypal.OrderStatusCompleted:
			if err := s.finalizeCapture(ctx, &order, remote.CaptureID); err != nil {
				s.logger.Error("reconcile finalize", zap.String("order_id", order.ID), zap.Error(err))
			}
		case paypal.OrderStatusApproved:
			captured, err := s.provider.CaptureOrder(ctx, order.ProviderOrderID)
			if err != nil || captured.Status != paypal.OrderStatusCompleted {
				s.logger.Warn("reconcile capture failed", zap.String("provider_order_id", order.ProviderOrderID), zap.Error(err))
				continue
			}
			if err := s.finalizeCapture(ctx, &order, captured.CaptureID); err != nil {
				s.logger.Error("reconcile finalize", zap.String("order_id", order.ID), zap.Error(err))
			}
		default:
			s.markFailed(ctx, &order)
		}
	}
	return nil
}

func (s *CheckoutService) finalizeCapture(ctx context.Context, order *domain.PaymentOrder, captureID string) error {
	// The user flag flips before the order turns terminal: a failure here
	// leaves the order non-terminal, so the reconciliation sweep retries the
	// whole finalization. The reverse order would strand a captured payment
	// outside the sweep's reach.
	user, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		return err
	}
	if user.PaymentStatus != domain.PaymentStatusPaid {
		user.PaymentStatus = domain.PaymentStatusPaid
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
	}

	order.Status = domain.PaymentOrderStatusCaptured
	if captureID != "" {
		order.CaptureID = &captureID
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPaymentCaptured,
		UserID:    order.UserID,
		Timestamp: time.Now(),
		Payload: events.PaymentCapturedPayload{
			OrderID:     order.ProviderOrderID,
			CaptureID:   captureID,
			AmountCents: order.AmountCents,
			Currency:    order.Currency,
		},
	})
	return nil
}

func (s *CheckoutService) markFailed(ctx context.Context, order *domain.PaymentOrder) {
	order.Status = domain.PaymentOrderStatusFailed
	if err := s.orders.Update(ctx, order); err != nil {
		s.logger.Error("mark failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *CheckoutService) successURL(order *domain.PaymentOrder) string {
	return withQuery(s.cfg.SuccessURL, map[string]string{
		"status":   "approved",
		"order_id": order.ProviderOrderID,
		"uid":      order.UserID,
	})
}

// withQuery appends query parameters to a base URL, preserving existing ones.
func withQuery(base string, params map[string]string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
