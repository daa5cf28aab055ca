package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/artshop/internal/core/domain"
)

// HandleOrderEvents sends a status notice to the owner of every order
// whose status changed. Deliveries are at least once: when a send fails
// the whole batch is retried by the caller.
func (s *Service) HandleOrderEvents(
	ctx context.Context, events []domain.OrderEvent,
) error {
	const op = "Service.HandleOrderEvents"
	log := slog.With("op", op)

	if s.notifier == nil {
		return nil
	}

	for _, e := range events {
		if e.EventType != domain.EventOrderStatusChanged {
			continue
		}

		u, err := s.users.ReadUser(ctx, e.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				log.Warn("order owner is gone", "orderID", e.OrderID)
				continue
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := s.notifier.SendOrderStatus(ctx, u.Email, e); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Debug("order status notice sent",
			"orderID", e.OrderID, "status", e.Status.String())
	}
	return nil
}
