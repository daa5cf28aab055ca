package storefront

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/artshop/internal/adapter/httphandler"
	"github.com/niksmo/artshop/internal/core/domain"
)

// PaymentAdapter places an order for a hand-off and pays for it.
type PaymentAdapter struct {
	orders    OrderAPI
	processor PaymentConfirmer
	cart      *CartStore
}

// NewPaymentAdapter returns an adapter. cart may be nil; when set it is
// refetched after a successful payment.
func NewPaymentAdapter(
	orders OrderAPI, processor PaymentConfirmer, cart *CartStore,
) *PaymentAdapter {
	return &PaymentAdapter{orders: orders, processor: processor, cart: cart}
}

// Pay places the order, creates and confirms its payment intent and asks
// the shop to settle it. A charge that went through but could not be
// settled yields [*ErrPaymentUnsettled].
func (p *PaymentAdapter) Pay(
	ctx context.Context, h Handoff, paymentMethod string,
) (httphandler.Order, error) {
	const op = "PaymentAdapter.Pay"
	log := slog.With("op", op)

	order, err := p.orders.PlaceOrder(ctx, h.Lines(), h.Name, h.Phone, h.Address)
	if err != nil {
		return httphandler.Order{}, fmt.Errorf("%s: place order: %w", op, err)
	}
	log = log.With("orderID", order.ID)

	intent, err := p.orders.CreatePaymentIntent(ctx, order.ID)
	if err != nil {
		return order, fmt.Errorf("%s: create intent: %w", op, err)
	}

	pi, err := p.processor.Confirm(ctx, intent.IntentID, intent.ClientSecret, paymentMethod)
	if err != nil {
		return order, fmt.Errorf("%s: confirm intent: %w", op, err)
	}
	if pi.Status == domain.IntentFailed || pi.Status == domain.IntentCanceled {
		return order, fmt.Errorf("%s: %w", op, ErrPaymentFailed)
	}

	paid, err := p.orders.ConfirmPayment(ctx, order.ID)
	if err != nil {
		log.Warn("charge is not settled yet", "err", err)
		return order, fmt.Errorf("%s: %w", op,
			&ErrPaymentUnsettled{OrderID: order.ID, Err: err})
	}

	if p.cart != nil {
		if err := p.cart.Fetch(ctx); err != nil {
			log.Warn("failed to refresh cart", "err", err)
		}
	}
	return paid, nil
}
