package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/artshop/internal/core/domain"
)

// CreatePaymentIntent opens a processor intent for a pending order. An
// open intent is reused, so repeating the call never charges twice. A
// linked intent the processor already decided is settled first; only a
// failed one makes room for a fresh intent.
func (s *Service) CreatePaymentIntent(
	ctx context.Context, sess domain.Session, orderID string,
) (domain.PaymentIntent, error) {
	const op = "Service.CreatePaymentIntent"
	log := slog.With("op", op, "orderID", orderID)

	o, err := s.ownOrder(ctx, sess, orderID)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}

	switch o.Status {
	case domain.OrderPendingPayment:
		if o.PaymentIntentID != "" {
			intent, err := s.processor.ReadIntent(ctx, o.PaymentIntentID)
			if err != nil {
				return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
			}
			var settled bool
			o, settled, err = s.settle(ctx, o, intent.Status)
			if err != nil {
				return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
			}
			if !settled {
				return intent, nil
			}
			if o.Status != domain.OrderPaymentFailed {
				return domain.PaymentIntent{}, fmt.Errorf(
					"%s: %w: order is %s", op, domain.ErrIllegalTransition, o.Status,
				)
			}
			log.Info("linked intent failed, opening a new one", "intentID", intent.ID)
			o, err = s.transition(ctx, o, domain.OrderPendingPayment)
			if err != nil {
				return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
			}
		}
	case domain.OrderPaymentFailed:
		o, err = s.transition(ctx, o, domain.OrderPendingPayment)
		if err != nil {
			return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
		}
	case domain.OrderPaid, domain.OrderProcessing, domain.OrderShipped,
		domain.OrderDelivered, domain.OrderCancelled:
		return domain.PaymentIntent{}, fmt.Errorf(
			"%s: %w: order is %s", op, domain.ErrIllegalTransition, o.Status,
		)
	}

	intent, err := s.processor.CreateIntent(ctx, o.ID, o.Total, s.cfg.Currency)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.orders.SetPaymentIntent(ctx, o.ID, intent.ID); err != nil {
		log.Error("intent created but not linked", "intentID", intent.ID, "err", err)
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}
	return intent, nil
}

func (s *Service) HandlePaymentWebhook(
	ctx context.Context, intentID string, status domain.IntentStatus,
) error {
	const op = "Service.HandlePaymentWebhook"

	o, err := s.orders.ReadOrderByIntent(ctx, intentID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, _, err := s.settle(ctx, o, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
