package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/niksmo/artshop/internal/core/checkout"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/pricing"
)

func (s *Service) PlaceOrder(
	ctx context.Context, sess domain.Session, p domain.PlaceOrder,
) (domain.Order, error) {
	const op = "Service.PlaceOrder"
	log := slog.With("op", op)

	if err := validatePlaceOrder(p); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.snapshotLines(ctx, p.Products)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	lines := make([]domain.OrderLine, len(items))
	for i, it := range items {
		lines[i] = domain.OrderLine{
			ProductID:     it.ProductID,
			Name:          it.Name,
			Price:         it.Price,
			LabelledPrice: it.LabelledPrice,
			Qty:           it.Qty,
		}
	}

	now := s.now()
	o := domain.Order{
		ID:        uuid.NewString(),
		UserID:    sess.UserID,
		Products:  lines,
		Name:      strings.TrimSpace(p.Name),
		Phone:     strings.TrimSpace(p.Phone),
		Address:   strings.TrimSpace(p.Address),
		Email:     sess.Email,
		Total:     pricing.Compute(items).FinalTotal,
		Status:    domain.OrderPendingPayment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	evt, err := newOrderOutboxEvent(domain.EventOrderPlaced, o, now)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	o, err = s.orders.StoreOrder(ctx, o, evt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("order placed", "orderID", o.ID, "total", o.Total.String())
	return o, nil
}

func validatePlaceOrder(p domain.PlaceOrder) error {
	if len(p.Products) == 0 {
		return domain.ErrEmptyOrder
	}
	if err := domain.ValidateLines(p.Products); err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(p.Name) == "":
		return domain.NewValidationError("name", "required")
	case !checkout.ValidPhone(strings.TrimSpace(p.Phone)):
		return domain.NewValidationError("phone", "must match 07XXXXXXXX")
	case strings.TrimSpace(p.Address) == "":
		return domain.NewValidationError("address", "required")
	}
	return nil
}

func (s *Service) ListMyOrders(
	ctx context.Context, sess domain.Session,
) ([]domain.Order, error) {
	const op = "Service.ListMyOrders"

	res, err := s.orders.ListOrders(ctx, domain.OrderQuery{UserID: sess.UserID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) ListAllOrders(
	ctx context.Context, sess domain.Session, q domain.OrderQuery,
) ([]domain.Order, error) {
	const op = "Service.ListAllOrders"

	if err := requireAdmin(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.orders.ListOrders(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) ChangeOrderStatus(
	ctx context.Context, sess domain.Session,
	orderID string, status domain.OrderStatus,
) (domain.Order, error) {
	const op = "Service.ChangeOrderStatus"

	if err := requireAdmin(sess); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	o, err := s.orders.ReadOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	o, err = s.transition(ctx, o, status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// ConfirmPayment asks the processor for the intent outcome and settles
// the order. Calling it for a paid order is a no-op.
func (s *Service) ConfirmPayment(
	ctx context.Context, sess domain.Session, orderID string,
) (domain.Order, error) {
	const op = "Service.ConfirmPayment"

	o, err := s.ownOrder(ctx, sess, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	if o.Status == domain.OrderPaid {
		return o, nil
	}
	if o.PaymentIntentID == "" {
		return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrPaymentMissing)
	}

	intent, err := s.processor.ReadIntent(ctx, o.PaymentIntentID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	o, settled, err := s.settle(ctx, o, intent.Status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	if !settled {
		return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrPaymentNotSettled)
	}
	return o, nil
}

// ownOrder hides other users' orders from non-admins.
func (s *Service) ownOrder(
	ctx context.Context, sess domain.Session, orderID string,
) (domain.Order, error) {
	o, err := s.orders.ReadOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.UserID != sess.UserID && !sess.IsAdmin() {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) transition(
	ctx context.Context, o domain.Order, to domain.OrderStatus,
) (domain.Order, error) {
	if !o.Status.CanTransitionTo(to) {
		return domain.Order{}, fmt.Errorf(
			"%w: %s -> %s", domain.ErrIllegalTransition, o.Status, to,
		)
	}

	from := o.Status
	o.Status = to
	evt, err := newOrderOutboxEvent(domain.EventOrderStatusChanged, o, s.now())
	if err != nil {
		return domain.Order{}, err
	}

	return s.orders.UpdateOrderStatus(ctx, o.ID, from, to, evt)
}

// settle applies a processor verdict. settled is false while the
// processor has not decided.
func (s *Service) settle(
	ctx context.Context, o domain.Order, st domain.IntentStatus,
) (_ domain.Order, settled bool, _ error) {
	next, ok := st.OrderStatus()
	if !ok {
		return o, false, nil
	}
	if o.Status == next {
		return o, true, nil
	}

	o, err := s.transition(ctx, o, next)
	if err != nil {
		return domain.Order{}, false, err
	}

	slog.Info("payment settled",
		"op", "Service.settle", "orderID", o.ID, "status", o.Status.String(),
	)
	if next == domain.OrderPaid {
		s.dropPurchased(ctx, o)
	}
	return o, true, nil
}
