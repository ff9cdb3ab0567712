package worker

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"studio_billing/internal/conf"
	"studio_billing/internal/logic"
)

// CheckoutExpirer is a background worker that cancels pending_payment
// records whose checkout session has lapsed. Gateway checkout sessions
// expire after 24 hours, so anything still pending past the configured age
// will never complete.
type CheckoutExpirer struct {
	reconcile *logic.ReconcileLogic
	logger    *zap.Logger
	interval  time.Duration
	maxAge    time.Duration
}

// NewCheckoutExpirer creates a new CheckoutExpirer.
func NewCheckoutExpirer(reconcile *logic.ReconcileLogic, logger *zap.Logger, cfg *conf.WorkerConfig) *CheckoutExpirer {
	return &CheckoutExpirer{
		reconcile: reconcile,
		logger:    logger.Named("CheckoutExpirer"),
		interval:  time.Duration(cfg.CheckoutExpirer.IntervalSeconds) * time.Second,
		maxAge:    time.Duration(cfg.CheckoutExpirer.MaxAgeHours) * time.Hour,
	}
}

// Start begins the ticker to periodically run the expiration task.
func (w *CheckoutExpirer) Start(ctx context.Context) {
	w.logger.Info("Checkout expirer started", zap.Duration("interval", w.interval), zap.Duration("maxAge", w.maxAge))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			w.logger.Info("Checkout expirer shutting down")
			return
		}
	}
}

func (w *CheckoutExpirer) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic recovered in checkout expirer",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	olderThan := time.Now().Add(-w.maxAge)
	expired, err := w.reconcile.ExpireStaleCheckouts(ctx, olderThan)
	if err != nil {
		w.logger.Error("Failed to expire stale checkouts", zap.Error(err))
		return
	}
	if expired > 0 {
		w.logger.Info("Expired stale checkouts", zap.Int64("count", expired))
	}
}

var _ Worker = (*CheckoutExpirer)(nil)
