package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.PaymentProcessor = (*Mock)(nil)

// SettleFunc is told about every intent the mock settles, the way a real
// processor calls the webhook.
type SettleFunc func(ctx context.Context, intentID string, status domain.IntentStatus) error

// A Mock is an in-memory payment processor for development and tests.
// Handler exposes it with the same REST API the [Client] speaks.
type Mock struct {
	mu        sync.Mutex
	secretKey string
	intents   map[string]*domain.PaymentIntent
	byOrder   map[string]string
	onSettle  SettleFunc
	now       func() time.Time
}

func NewMock(secretKey string) *Mock {
	return &Mock{
		secretKey: secretKey,
		intents:   make(map[string]*domain.PaymentIntent),
		byOrder:   make(map[string]string),
		now:       time.Now,
	}
}

// OnSettle registers fn. It runs after the lock is released.
func (m *Mock) OnSettle(fn SettleFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSettle = fn
}

func (m *Mock) CreateIntent(
	_ context.Context, orderID string,
	amount decimal.Decimal, currency string,
) (domain.PaymentIntent, error) {
	const op = "Mock.CreateIntent"

	if orderID == "" || !amount.IsPositive() {
		return domain.PaymentIntent{}, fmt.Errorf(
			"%s: %w", op, &ProcessorError{
				StatusCode: http.StatusBadRequest,
				Message:    "order id and positive amount required",
			},
		)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byOrder[orderID]; ok {
		pi := m.intents[id]
		if pi.Status == domain.IntentRequiresConfirmation {
			return *pi, nil
		}
	}

	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	pi := &domain.PaymentIntent{
		ID:           id,
		OrderID:      orderID,
		ClientSecret: id + "_secret_" + randomHex(12),
		Amount:       amount,
		Currency:     currency,
		Status:       domain.IntentRequiresConfirmation,
		CreatedAt:    m.now().UTC(),
	}
	m.intents[id] = pi
	m.byOrder[orderID] = id
	return *pi, nil
}

func (m *Mock) ReadIntent(
	_ context.Context, intentID string,
) (domain.PaymentIntent, error) {
	const op = "Mock.ReadIntent"

	m.mu.Lock()
	defer m.mu.Unlock()

	pi, ok := m.intents[intentID]
	if !ok {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return *pi, nil
}

func (m *Mock) CancelIntent(ctx context.Context, intentID string) error {
	const op = "Mock.CancelIntent"

	pi, err := m.finalize(intentID, func(pi *domain.PaymentIntent) error {
		if pi.Status == domain.IntentSucceeded {
			return ErrIntentFinalized
		}
		pi.Status = domain.IntentCanceled
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.settled(ctx, pi)
	return nil
}

// Confirm charges the intent. Payment method [DeclinedPaymentMethod]
// fails the charge, any other succeeds.
func (m *Mock) Confirm(
	ctx context.Context, intentID, clientSecret, paymentMethod string,
) (domain.PaymentIntent, error) {
	const op = "Mock.Confirm"

	pi, err := m.finalize(intentID, func(pi *domain.PaymentIntent) error {
		if pi.ClientSecret != clientSecret {
			return ErrBadSecret
		}
		if pi.Status != domain.IntentRequiresConfirmation {
			return ErrIntentFinalized
		}
		pi.Status = domain.IntentSucceeded
		if paymentMethod == DeclinedPaymentMethod {
			pi.Status = domain.IntentFailed
		}
		return nil
	})
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}
	m.settled(ctx, pi)
	return pi, nil
}

func (m *Mock) finalize(
	intentID string, fn func(*domain.PaymentIntent) error,
) (domain.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pi, ok := m.intents[intentID]
	if !ok {
		return domain.PaymentIntent{}, domain.ErrNotFound
	}
	if err := fn(pi); err != nil {
		return domain.PaymentIntent{}, err
	}
	return *pi, nil
}

func (m *Mock) settled(ctx context.Context, pi domain.PaymentIntent) {
	const op = "Mock.settled"

	m.mu.Lock()
	fn := m.onSettle
	m.mu.Unlock()

	if fn == nil {
		return
	}
	if err := fn(ctx, pi.ID, pi.Status); err != nil {
		slog.Warn("settle callback failed", "op", op, "intentID", pi.ID, "err", err)
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Handler serves the processor REST API backed by m.
func (m *Mock) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/v1/payment_intents", func(r chi.Router) {
		r.With(m.requireSecret).Post("/", m.handleCreate)
		r.With(m.requireSecret).Get("/{id}", m.handleRead)
		r.With(m.requireSecret).Post("/{id}/cancel", m.handleCancel)
		r.Post("/{id}/confirm", m.handleConfirm)
	})
	return r
}

func (m *Mock) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secretKey != "" && r.Header.Get("Authorization") != "Bearer "+m.secretKey {
			writeMockError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Mock) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMockError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeMockError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" && key != req.OrderID {
		writeMockError(w, http.StatusBadRequest, "idempotency key must be the order id")
		return
	}

	pi, err := m.CreateIntent(r.Context(), req.OrderID, amount, req.Currency)
	if err != nil {
		writeMockErr(w, err)
		return
	}
	writeMockJSON(w, http.StatusOK, fromIntent(pi))
}

func (m *Mock) handleRead(w http.ResponseWriter, r *http.Request) {
	pi, err := m.ReadIntent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMockErr(w, err)
		return
	}
	writeMockJSON(w, http.StatusOK, fromIntent(pi))
}

func (m *Mock) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := m.CancelIntent(r.Context(), id); err != nil {
		writeMockErr(w, err)
		return
	}
	pi, err := m.ReadIntent(r.Context(), id)
	if err != nil {
		writeMockErr(w, err)
		return
	}
	writeMockJSON(w, http.StatusOK, fromIntent(pi))
}

func (m *Mock) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMockError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}
	pi, err := m.Confirm(r.Context(), chi.URLParam(r, "id"), req.ClientSecret, req.PaymentMethod)
	if err != nil {
		writeMockErr(w, err)
		return
	}
	writeMockJSON(w, http.StatusOK, fromIntent(pi))
}

func writeMockErr(w http.ResponseWriter, err error) {
	var pe *ProcessorError
	switch {
	case errors.As(err, &pe):
		writeMockError(w, pe.StatusCode, pe.Message)
	case errors.Is(err, domain.ErrNotFound):
		writeMockError(w, http.StatusNotFound, "no such payment intent")
	case errors.Is(err, ErrBadSecret):
		writeMockError(w, http.StatusForbidden, ErrBadSecret.Error())
	case errors.Is(err, ErrIntentFinalized):
		writeMockError(w, http.StatusConflict, ErrIntentFinalized.Error())
	default:
		writeMockError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeMockError(w http.ResponseWriter, code int, msg string) {
	writeMockJSON(w, code, errorResponse{Error: msg})
}

func writeMockJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
