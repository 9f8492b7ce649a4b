package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/exemption-service/internal/service"
)

// StartReconciliationWorker sweeps stale payment orders on a fixed interval
// until the context is cancelled. Runs in its own goroutine.
func StartReconciliationWorker(ctx context.Context, checkout *service.CheckoutService, interval time.Duration, logger *zap.Logger) {
	if checkout == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("reconciliation worker stopped")
				return
			case <-ticker.C:
				if err := checkout.Reconcile(ctx); err != nil {
					logger.Error("payment reconciliation sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
