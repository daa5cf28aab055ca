package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type IntentStatus int

const (
	IntentRequiresConfirmation IntentStatus = iota + 1
	IntentProcessing
	IntentSucceeded
	IntentFailed
	IntentCanceled
)

func (s IntentStatus) String() string {
	switch s {
	case IntentRequiresConfirmation:
		return "requires_confirmation"
	case IntentProcessing:
		return "processing"
	case IntentSucceeded:
		return "succeeded"
	case IntentFailed:
		return "failed"
	case IntentCanceled:
		return "canceled"
	}
	return "unknown"
}

// OrderStatus maps a processor verdict onto the order lifecycle. ok is
// false while the processor has not decided yet.
func (s IntentStatus) OrderStatus() (status OrderStatus, ok bool) {
	switch s {
	case IntentSucceeded:
		return OrderPaid, true
	case IntentFailed, IntentCanceled:
		return OrderPaymentFailed, true
	case IntentRequiresConfirmation, IntentProcessing:
		return 0, false
	}
	return 0, false
}

type PaymentIntent struct {
	ID           string
	OrderID      string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       IntentStatus
	CreatedAt    time.Time
}

type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// An OrderEvent is what the outbox relays about an order.
type OrderEvent struct {
	EventType  string
	OrderID    string
	UserID     string
	Status     OrderStatus
	Total      decimal.Decimal
	Products   []OrderLine
	OccurredAt time.Time
}

// A ProductSale is a paid quantity of one product.
type ProductSale struct {
	ProductID string
	Qty       int
}
