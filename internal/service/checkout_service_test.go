package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/exemption-service/internal/config"
	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/events"
	"github.com/spec-kit/exemption-service/internal/paypal"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

func checkoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		AmountCents:   4900,
		Currency:      "EUR",
		SuccessURL:    "https://app.example.test/payment/success",
		FailureURL:    "https://app.example.test/payment/failure",
		ReturnBaseURL: "https://api.example.test",
	}
}

func newCheckoutFixture(t *testing.T, provider *fakeProvider) (*CheckoutService, *fakeOrderRepo, *fakeUserRepo, *recordingDispatcher) {
	t.Helper()
	users := newFakeUserRepo(&domain.User{
		ID:            "user-1",
		Email:         "driver@example.test",
		PaymentStatus: domain.PaymentStatusUnpaid,
	})
	orders := newFakeOrderRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewCheckoutService(checkoutConfig(), CheckoutDependencies{
		OrderRepo:  orders,
		UserRepo:   users,
		Provider:   provider,
		Dispatcher: dispatcher,
		Locker:     &fakeLocker{},
	}, zap.NewNop())
	return svc, orders, users, dispatcher
}

func approvingProvider() *fakeProvider {
	return &fakeProvider{
		CreateOrderFunc: func(_ context.Context, input paypal.CreateOrderInput) (*paypal.Order, error) {
			if input.Amount != "49.00" {
				return nil, errors.New("unexpected amount " + input.Amount)
			}
			return &paypal.Order{
				ID:          "PP-100",
				Status:      paypal.OrderStatusCreated,
				ApprovalURL: "https://paypal.example.test/approve/PP-100",
			}, nil
		},
		CaptureOrderFunc: func(_ context.Context, orderID string) (*paypal.Order, error) {
			return &paypal.Order{ID: orderID, Status: paypal.OrderStatusCompleted, CaptureID: "CAP-1"}, nil
		},
	}
}

func mustQuery(t *testing.T, target string) url.Values {
	t.Helper()
	u, err := url.Parse(target)
	if err != nil {
		t.Fatalf("parse redirect %q: %v", target, err)
	}
	return u.Query()
}

func TestStartCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("creates order with approval url", func(t *testing.T) {
		svc, _, _, _ := newCheckoutFixture(t, approvingProvider())

		order, err := svc.StartCheckout(ctx, "user-1")
		if err != nil {
			t.Fatalf("StartCheckout: %v", err)
		}
		if order.ApprovalURL != "https://paypal.example.test/approve/PP-100" {
			t.Errorf("approval url = %q", order.ApprovalURL)
		}
		if order.Status != domain.PaymentOrderStatusCreated {
			t.Errorf("status = %q, want CREATED", order.Status)
		}
		if order.AmountCents != 4900 || order.Currency != "EUR" {
			t.Errorf("amount = %d %s", order.AmountCents, order.Currency)
		}
	})

	t.Run("already paid user is rejected", func(t *testing.T) {
		svc, _, users, _ := newCheckoutFixture(t, approvingProvider())
		paid, _ := users.GetByID(ctx, "user-1")
		paid.PaymentStatus = domain.PaymentStatusPaid
		if err := users.Update(ctx, paid); err != nil {
			t.Fatalf("seed paid user: %v", err)
		}

		_, err := svc.StartCheckout(ctx, "user-1")
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "CONFLICT" {
			t.Fatalf("err = %v, want CONFLICT", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _, _ := newCheckoutFixture(t, approvingProvider())
		_, err := svc.StartCheckout(ctx, "ghost")
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "NOT_FOUND" {
			t.Fatalf("err = %v, want NOT_FOUND", err)
		}
	})

	t.Run("pending order is reused without a new provider call", func(t *testing.T) {
		provider := approvingProvider()
		svc, _, _, _ := newCheckoutFixture(t, provider)

		first, err := svc.StartCheckout(ctx, "user-1")
		if err != nil {
			t.Fatalf("first StartCheckout: %v", err)
		}
		provider.CreateOrderFunc = func(context.Context, paypal.CreateOrderInput) (*paypal.Order, error) {
			t.Fatal("CreateOrder called for pending order")
			return nil, nil
		}
		second, err := svc.StartCheckout(ctx, "user-1")
		if err != nil {
			t.Fatalf("second StartCheckout: %v", err)
		}
		if second.ID != first.ID || second.ApprovalURL != first.ApprovalURL {
			t.Errorf("second = %+v, want first order back", second)
		}
	})

	t.Run("missing approval link is a provider error", func(t *testing.T) {
		provider := approvingProvider()
		provider.CreateOrderFunc = func(context.Context, paypal.CreateOrderInput) (*paypal.Order, error) {
			return &paypal.Order{ID: "PP-101", Status: paypal.OrderStatusCreated}, nil
		}
		svc, orders, _, _ := newCheckoutFixture(t, provider)

		_, err := svc.StartCheckout(ctx, "user-1")
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "PROVIDER_ERROR" {
			t.Fatalf("err = %v, want PROVIDER_ERROR", err)
		}
		if len(orders.orders) != 0 {
			t.Errorf("order persisted despite provider failure")
		}
	})

	t.Run("held lock blocks a second start", func(t *testing.T) {
		svc, _, _, _ := newCheckoutFixture(t, approvingProvider())
		svc.locker = &fakeLocker{denied: true}

		_, err := svc.StartCheckout(ctx, "user-1")
		var derr *apperrors.DomainError
		if !errors.As(err, &derr) || derr.Code != "CONFLICT" {
			t.Fatalf("err = %v, want CONFLICT", err)
		}
	})
}

func TestHandleReturn(t *testing.T) {
	ctx := context.Background()

	start := func(t *testing.T, provider *fakeProvider) (*CheckoutService, *fakeOrderRepo, *fakeUserRepo, *recordingDispatcher) {
		svc, orders, users, dispatcher := newCheckoutFixture(t, provider)
		if _, err := svc.StartCheckout(ctx, "user-1"); err != nil {
			t.Fatalf("seed order: %v", err)
		}
		return svc, orders, users, dispatcher
	}

	t.Run("completed capture redirects approved and marks paid", func(t *testing.T) {
		svc, _, users, dispatcher := start(t, approvingProvider())

		target := svc.HandleReturn(ctx, "PP-100")
		if !strings.HasPrefix(target, "https://app.example.test/payment/success") {
			t.Fatalf("redirect = %q, want success page", target)
		}
		q := mustQuery(t, target)
		if q.Get("status") != "approved" || q.Get("order_id") != "PP-100" || q.Get("uid") != "user-1" {
			t.Errorf("query = %v", q)
		}

		user, _ := users.GetByID(ctx, "user-1")
		if user.PaymentStatus != domain.PaymentStatusPaid {
			t.Errorf("payment status = %q, want paid", user.PaymentStatus)
		}
		types := dispatcher.typesSeen()
		if len(types) != 1 || types[0] != events.EventPaymentCaptured {
			t.Errorf("events = %v", types)
		}
	})

	t.Run("incomplete capture redirects failed", func(t *testing.T) {
		provider := approvingProvider()
		provider.CaptureOrderFunc = func(_ context.Context, orderID string) (*paypal.Order, error) {
			return &paypal.Order{ID: orderID, Status: paypal.OrderStatusApproved}, nil
		}
		svc, orders, users, _ := start(t, provider)

		target := svc.HandleReturn(ctx, "PP-100")
		if !strings.HasPrefix(target, "https://app.example.test/payment/failure") {
			t.Fatalf("redirect = %q, want failure page", target)
		}
		q := mustQuery(t, target)
		if q.Get("status") != "failed" || q.Get("order_id") != "PP-100" {
			t.Errorf("query = %v", q)
		}

		order, _ := orders.GetByProviderOrderID(ctx, "PP-100")
		if order.Status != domain.PaymentOrderStatusFailed {
			t.Errorf("order status = %q, want FAILED", order.Status)
		}
		user, _ := users.GetByID(ctx, "user-1")
		if user.PaymentStatus != domain.PaymentStatusUnpaid {
			t.Errorf("payment status flipped on failed capture")
		}
	})

	t.Run("capture error redirects failed", func(t *testing.T) {
		provider := approvingProvider()
		provider.CaptureOrderFunc = func(context.Context, string) (*paypal.Order, error) {
			return nil, errors.New("gateway timeout")
		}
		svc, _, _, _ := start(t, provider)

		q := mustQuery(t, svc.HandleReturn(ctx, "PP-100"))
		if q.Get("status") != "failed" {
			t.Errorf("status = %q, want failed", q.Get("status"))
		}
	})

	t.Run("repeated callback on captured order stays approved", func(t *testing.T) {
		provider := approvingProvider()
		svc, _, _, _ := start(t, provider)
		svc.HandleReturn(ctx, "PP-100")

		provider.CaptureOrderFunc = func(context.Context, string) (*paypal.Order, error) {
			t.Fatal("CaptureOrder called twice for the same order")
			return nil, nil
		}
		q := mustQuery(t, svc.HandleReturn(ctx, "PP-100"))
		if q.Get("status") != "approved" {
			t.Errorf("status = %q, want approved on repeat", q.Get("status"))
		}
	})

	t.Run("unknown token redirects failed", func(t *testing.T) {
		svc, _, _, _ := newCheckoutFixture(t, approvingProvider())
		for _, token := range []string{"", "PP-unknown"} {
			q := mustQuery(t, svc.HandleReturn(ctx, token))
			if q.Get("status") != "failed" {
				t.Errorf("token %q: status = %q, want failed", token, q.Get("status"))
			}
		}
	})
}

func TestHandleCancel(t *testing.T) {
	ctx := context.Background()
	svc, orders, _, _ := newCheckoutFixture(t, approvingProvider())
	if _, err := svc.StartCheckout(ctx, "user-1"); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	target := svc.HandleCancel(ctx, "PP-100")
	q := mustQuery(t, target)
	if q.Get("status") != "cancelled" {
		t.Errorf("status = %q, want cancelled", q.Get("status"))
	}
	order, _ := orders.GetByProviderOrderID(ctx, "PP-100")
	if order.Status != domain.PaymentOrderStatusCancelled {
		t.Errorf("order status = %q, want CANCELLED", order.Status)
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("completed order is finalized", func(t *testing.T) {
		provider := approvingProvider()
		provider.GetOrderFunc = func(_ context.Context, orderID string) (*paypal.Order, error) {
			return &paypal.Order{ID: orderID, Status: paypal.OrderStatusCompleted, CaptureID: "CAP-9"}, nil
		}
		svc, orders, users, _ := newCheckoutFixture(t, provider)
		if _, err := svc.StartCheckout(ctx, "user-1"); err != nil {
			t.Fatalf("seed order: %v", err)
		}
		ageOrders(orders)

		if err := svc.Reconcile(ctx); err != nil {
			t.Fatalf("Reconcile: %v", err)
		}
		order, _ := orders.GetByProviderOrderID(ctx, "PP-100")
		if order.Status != domain.PaymentOrderStatusCaptured {
			t.Errorf("order status = %q, want CAPTURED", order.Status)
		}
		user, _ := users.GetByID(ctx, "user-1")
		if user.PaymentStatus != domain.PaymentStatusPaid {
			t.Errorf("payment status = %q, want paid", user.PaymentStatus)
		}
	})

	t.Run("failed finalization stays repairable", func(t *testing.T) {
		provider := approvingProvider()
		provider.GetOrderFunc = func(_ context.Context, orderID string) (*paypal.Order, error) {
			return &paypal.Order{ID: orderID, Status: paypal.OrderStatusCompleted, CaptureID: "CAP-9"}, nil
		}
		svc, orders, users, _ := newCheckoutFixture(t, provider)
		if _, err := svc.StartCheckout(ctx, "user-1"); err != nil {
			t.Fatalf("seed order: %v", err)
		}

		// The user update fails mid-return; the order must stay non-terminal
		// so the sweep can pick it up once the store recovers.
		users.updateErr = errors.New("connection reset")
		q := mustQuery(t, svc.HandleReturn(ctx, "PP-100"))
		if q.Get("status") != "failed" {
			t.Errorf("status = %q, want failed while finalization is pending", q.Get("status"))
		}
		order, _ := orders.GetByProviderOrderID(ctx, "PP-100")
		if order.Status.Terminal() {
			t.Fatalf("order status = %q, sweep can no longer reach it", order.Status)
		}

		users.updateErr = nil
		ageOrders(orders)
		if err := svc.Reconcile(ctx); err != nil {
			t.Fatalf("Reconcile: %v", err)
		}
		order, _ = orders.GetByProviderOrderID(ctx, "PP-100")
		if order.Status != domain.PaymentOrderStatusCaptured {
			t.Errorf("order status = %q, want CAPTURED after repair", order.Status)
		}
		user, _ := users.GetByID(ctx, "user-1")
		if user.PaymentStatus != domain.PaymentStatusPaid {
			t.Errorf("payment status = %q, want paid after repair", user.PaymentStatus)
		}
	})

	t.Run("voided order is marked failed", func(t *testing.T) {
		provider := approvingProvider()
		provider.GetOrderFunc = func(_ context.Context, orderID string) (*paypal.Order, error) {
			return &paypal.Order{ID: orderID, Status: paypal.OrderStatusVoided}, nil
		}
		svc, orders, _, _ := newCheckoutFixture(t, provider)
		if _, err := svc.StartCheckout(ctx, "user-1"); err != nil {
			t.Fatalf("seed order: %v", err)
		}
		ageOrders(orders)

		if err := svc.Reconcile(ctx); err != nil {
			t.Fatalf("Reconcile: %v", err)
		}
		order, _ := orders.GetByProviderOrderID(ctx, "PP-100")
		if order.Status != domain.PaymentOrderStatusFailed {
			t.Errorf("order status = %q, want FAILED", order.Status)
		}
	})
}

func ageOrders(orders *fakeOrderRepo) {
	orders.mu.Lock()
	defer orders.mu.Unlock()
	for _, order := range orders.orders {
		order.UpdatedAt = order.UpdatedAt.Add(-2 * time.Hour)
	}
}
