// Package storefront keeps the client side shopping state: the cart copy,
// the checkout selection, the shipping form and the payment flow.
package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/niksmo/artshop/internal/adapter/httphandler"
	"github.com/niksmo/artshop/internal/core/domain"
)

var (
	ErrFormInvalid   = errors.New("checkout form is invalid")
	ErrEmptyCheckout = errors.New("nothing to check out")
	ErrPaymentFailed = errors.New("payment was declined")
)

// ErrPaymentUnsettled is returned when the charge went through but the
// shop has not marked the order paid yet. The order settles later.
type ErrPaymentUnsettled struct {
	OrderID string
	Err     error
}

func (e *ErrPaymentUnsettled) Error() string {
	return fmt.Sprintf("payment for order %s is not settled: %v", e.OrderID, e.Err)
}

func (e *ErrPaymentUnsettled) Unwrap() error { return e.Err }

// CartAPI is the part of the shop API the cart store talks to.
type CartAPI interface {
	GetCart(ctx context.Context) (domain.Cart, error)
	ReplaceCart(ctx context.Context, lines []domain.CartLine, version int64) (domain.Cart, error)
}

// OrderAPI is the part of the shop API the payment flow talks to.
type OrderAPI interface {
	PlaceOrder(
		ctx context.Context, lines []domain.CartLine, name, phone, address string,
	) (httphandler.Order, error)
	CreatePaymentIntent(ctx context.Context, orderID string) (httphandler.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, orderID string) (httphandler.Order, error)
}

// A PaymentConfirmer charges an intent at the payment processor.
type PaymentConfirmer interface {
	Confirm(
		ctx context.Context, intentID, clientSecret, paymentMethod string,
	) (domain.PaymentIntent, error)
}
