package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/artshop/internal/core/domain"
)

func (h Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.PlaceOrder"

	var req PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	o, err := h.svc.Orders.PlaceOrder(r.Context(), sessionFrom(r), domain.PlaceOrder{
		Products: toCartLines(req.Products),
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, fromOrder(o))
}

func (h Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ListMyOrders"

	list, err := h.svc.Orders.ListMyOrders(r.Context(), sessionFrom(r))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromOrders(list))
}

// ConfirmPayment answers 409 while the processor has not settled the
// intent, so the client can retry later.
func (h Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ConfirmPayment"

	o, err := h.svc.Orders.ConfirmPayment(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromOrder(o))
}

func (h Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ListAllOrders"

	q := r.URL.Query()
	var query domain.OrderQuery
	query.UserID = q.Get("userId")

	if s := q.Get("status"); s != "" {
		status, err := domain.ParseOrderStatus(s)
		if err != nil {
			writeErr(w, r, op, err)
			return
		}
		query.Status = status
	}

	var err error
	if query.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		writeErr(w, r, op, err)
		return
	}
	if query.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		writeErr(w, r, op, err)
		return
	}

	list, err := h.svc.Orders.ListAllOrders(r.Context(), sessionFrom(r), query)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromOrders(list))
}

func (h Handler) ChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ChangeOrderStatus"

	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}

	o, err := h.svc.Orders.ChangeOrderStatus(
		r.Context(), sessionFrom(r), chi.URLParam(r, "id"), status,
	)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromOrder(o))
}

func (h Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.CreatePaymentIntent"

	var req PaymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}
	if req.OrderID == "" {
		writeErr(w, r, op, domain.NewValidationError("orderId", "required"))
		return
	}

	pi, err := h.svc.Payments.CreatePaymentIntent(r.Context(), sessionFrom(r), req.OrderID)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentIntent{
		OrderID:      req.OrderID,
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     pi.Currency,
	})
}

func (h Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.PaymentWebhook"

	var req WebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	status, ok := parseWebhookStatus(req.Status)
	if !ok || req.IntentID == "" {
		writeErr(w, r, op, domain.NewValidationError("status", "unknown intent status"))
		return
	}

	if err := h.svc.Payments.HandlePaymentWebhook(r.Context(), req.IntentID, status); err != nil {
		writeErr(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseWebhookStatus(s string) (domain.IntentStatus, bool) {
	for _, st := range []domain.IntentStatus{
		domain.IntentRequiresConfirmation,
		domain.IntentProcessing,
		domain.IntentSucceeded,
		domain.IntentFailed,
		domain.IntentCanceled,
	} {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}
