package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/pkg/retry"
)

type ReconcilerConfig struct {
	Interval time.Duration
	// StaleAfter is how long an order may wait for payment before the
	// reconciler asks the processor about it.
	StaleAfter time.Duration
	// ExpireAfter is how long an undecided order lives before it is
	// cancelled.
	ExpireAfter time.Duration
	Batch       int
}

func (c *ReconcilerConfig) normalize() {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 5 * time.Minute
	}
	if c.ExpireAfter <= 0 {
		c.ExpireAfter = 24 * time.Hour
	}
	if c.Batch <= 0 {
		c.Batch = 100
	}
}

// A Reconciler settles orders whose payment outcome never reached the
// shop, and cancels the ones nobody paid for.
type Reconciler struct {
	svc      *Service
	cfg      ReconcilerConfig
	retryCfg retry.RetryConfig
}

func NewReconciler(svc *Service, cfg ReconcilerConfig) *Reconciler {
	cfg.normalize()
	return &Reconciler{
		svc: svc,
		cfg: cfg,
		retryCfg: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
			ShouldRetry: func(err error) bool {
				return !errors.Is(err, domain.ErrNotFound)
			},
		},
	}
}

func (r *Reconciler) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	runEvery(ctx, wg, "Reconciler.Run", r.cfg.Interval, func(ctx context.Context) error {
		_, err := r.ReconcileOnce(ctx)
		return err
	})
}

// ReconcileOnce walks every stale order page by page and returns the
// number of orders whose status changed.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	const op = "Reconciler.ReconcileOnce"
	log := slog.With("op", op)

	now := r.svc.now()
	q := domain.AwaitingPaymentQuery{
		StaleBefore:  now.Add(-r.cfg.StaleAfter),
		ExpireBefore: now.Add(-r.cfg.ExpireAfter),
		Limit:        r.cfg.Batch,
	}

	var changed int
	for {
		orders, err := r.svc.orders.ListAwaitingPayment(ctx, q)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", op, err)
		}

		for _, o := range orders {
			ok, err := r.reconcile(ctx, o, now)
			if err != nil {
				log.Error("failed to reconcile", "orderID", o.ID, "err", err)
				continue
			}
			if ok {
				changed++
			}
		}

		if len(orders) < q.Limit {
			return changed, nil
		}
		if err := ctx.Err(); err != nil {
			return changed, fmt.Errorf("%s: %w", op, err)
		}
		last := orders[len(orders)-1]
		q.AfterCreatedAt, q.AfterID = last.CreatedAt, last.ID
	}
}

func (r *Reconciler) reconcile(
	ctx context.Context, o domain.Order, now time.Time,
) (bool, error) {
	expired := now.Sub(o.CreatedAt) >= r.cfg.ExpireAfter

	if o.PaymentIntentID == "" || o.Status == domain.OrderPaymentFailed {
		if !expired {
			return false, nil
		}
		return true, r.cancel(ctx, o)
	}

	intent, err := retry.DoWithResult(ctx, r.retryCfg, func() (domain.PaymentIntent, error) {
		return r.svc.processor.ReadIntent(ctx, o.PaymentIntentID)
	})
	if err != nil {
		return false, err
	}

	settledOrder, settled, err := r.svc.settle(ctx, o, intent.Status)
	if err != nil {
		return false, err
	}
	if settled {
		return settledOrder.Status != o.Status, nil
	}
	if !expired {
		return false, nil
	}

	err = retry.Do(ctx, r.retryCfg, func() error {
		return r.svc.processor.CancelIntent(ctx, o.PaymentIntentID)
	})
	if err != nil {
		return false, err
	}

	// cancelling may have settled the order through the webhook already
	cur, err := r.svc.orders.ReadOrder(ctx, o.ID)
	if err != nil {
		return false, err
	}
	return true, r.cancel(ctx, cur)
}

func (r *Reconciler) cancel(ctx context.Context, o domain.Order) error {
	if _, err := r.svc.transition(ctx, o, domain.OrderCancelled); err != nil {
		return err
	}
	slog.Info("unpaid order cancelled",
		"op", "Reconciler.cancel", "orderID", o.ID,
	)
	return nil
}
