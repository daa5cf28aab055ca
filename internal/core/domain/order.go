package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus int

const (
	OrderPendingPayment OrderStatus = iota + 1
	OrderPaid
	OrderProcessing
	OrderShipped
	OrderDelivered
	OrderCancelled
	OrderPaymentFailed
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch s {
	case "pending_payment":
		return OrderPendingPayment, nil
	case "paid":
		return OrderPaid, nil
	case "processing":
		return OrderProcessing, nil
	case "shipped":
		return OrderShipped, nil
	case "delivered":
		return OrderDelivered, nil
	case "cancelled":
		return OrderCancelled, nil
	case "payment_failed":
		return OrderPaymentFailed, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrderStatus, s)
}

func (s OrderStatus) String() string {
	switch s {
	case OrderPendingPayment:
		return "pending_payment"
	case OrderPaid:
		return "paid"
	case OrderProcessing:
		return "processing"
	case OrderShipped:
		return "shipped"
	case OrderDelivered:
		return "delivered"
	case OrderCancelled:
		return "cancelled"
	case OrderPaymentFailed:
		return "payment_failed"
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderDelivered, OrderCancelled:
		return true
	case OrderPendingPayment, OrderPaid, OrderProcessing,
		OrderShipped, OrderPaymentFailed:
		return false
	}
	return false
}

// CanTransitionTo reports whether the order lifecycle allows moving from s
// to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPendingPayment:
		return next == OrderPaid || next == OrderPaymentFailed ||
			next == OrderCancelled
	case OrderPaymentFailed:
		return next == OrderPendingPayment || next == OrderCancelled
	case OrderPaid:
		return next == OrderProcessing || next == OrderCancelled
	case OrderProcessing:
		return next == OrderShipped || next == OrderCancelled
	case OrderShipped:
		return next == OrderDelivered
	case OrderDelivered, OrderCancelled:
		return false
	}
	return false
}

type OrderLine struct {
	ProductID     string
	Name          string
	Price         decimal.Decimal
	LabelledPrice decimal.Decimal
	Qty           int
}

// An Order is immutable after placement apart from its status and
// payment intent.
type Order struct {
	ID              string
	UserID          string
	Products        []OrderLine
	Name            string
	Phone           string
	Address         string
	Email           string
	Total           decimal.Decimal
	Status          OrderStatus
	PaymentIntentID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// A PlaceOrder is the checkout payload submitted by a customer.
type PlaceOrder struct {
	Products []CartLine
	Name     string
	Phone    string
	Address  string
}

type OrderQuery struct {
	UserID string
	Status OrderStatus
	Limit  int
	Offset int
}

// An AwaitingPaymentQuery pages through unpaid orders by creation time
// and id, starting after the given position.
type AwaitingPaymentQuery struct {
	// StaleBefore selects pending orders that hold an intent.
	StaleBefore time.Time
	// ExpireBefore selects every unpaid order old enough to be cancelled.
	ExpireBefore   time.Time
	AfterCreatedAt time.Time
	AfterID        string
	Limit          int
}
