package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DeclinedPaymentMethod makes the mock processor fail the charge.
const DeclinedPaymentMethod = "pm_card_declined"

var (
	ErrBadSecret       = errors.New("client secret mismatch")
	ErrIntentFinalized = errors.New("intent is already finalized")
)

// A ProcessorError is a non-success answer of the processor API.
type ProcessorError struct {
	StatusCode int
	Message    string
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor answered %d: %s", e.StatusCode, e.Message)
}

type (
	intentRequest struct {
		OrderID  string `json:"orderId"`
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}

	intentResponse struct {
		ID           string    `json:"id"`
		OrderID      string    `json:"orderId"`
		ClientSecret string    `json:"clientSecret"`
		Amount       string    `json:"amount"`
		Currency     string    `json:"currency"`
		Status       string    `json:"status"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	confirmRequest struct {
		ClientSecret  string `json:"clientSecret"`
		PaymentMethod string `json:"paymentMethod,omitempty"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func parseIntentStatus(s string) (domain.IntentStatus, error) {
	switch s {
	case "requires_confirmation":
		return domain.IntentRequiresConfirmation, nil
	case "processing":
		return domain.IntentProcessing, nil
	case "succeeded":
		return domain.IntentSucceeded, nil
	case "failed":
		return domain.IntentFailed, nil
	case "canceled":
		return domain.IntentCanceled, nil
	}
	return 0, fmt.Errorf("unknown intent status %q", s)
}

func fromIntent(pi domain.PaymentIntent) intentResponse {
	return intentResponse{
		ID:           pi.ID,
		OrderID:      pi.OrderID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount.StringFixed(2),
		Currency:     pi.Currency,
		Status:       pi.Status.String(),
		CreatedAt:    pi.CreatedAt,
	}
}

func (r intentResponse) toDomain() (domain.PaymentIntent, error) {
	status, err := parseIntentStatus(r.Status)
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("amount: %w", err)
	}
	return domain.PaymentIntent{
		ID:           r.ID,
		OrderID:      r.OrderID,
		ClientSecret: r.ClientSecret,
		Amount:       amount,
		Currency:     r.Currency,
		Status:       status,
		CreatedAt:    r.CreatedAt,
	}, nil
}
