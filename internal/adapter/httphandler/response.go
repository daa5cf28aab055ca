package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/artshop/internal/core/domain"
)

var errInvalidJSON = errors.New("invalid JSON data")

func writeJSON(w http.ResponseWriter, code int, v any) {
	const op = "httphandler.writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

// writeErr maps service errors onto status codes. Unexpected errors are
// logged and hidden from the caller.
func writeErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Msg, Field: verr.Field})
	case errors.Is(err, errInvalidJSON),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrDuplicateItem),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrUnknownOrderStatus),
		errors.Is(err, domain.ErrUnknownReviewStatus),
		errors.Is(err, domain.ErrInvalidOTP):
		writeMessage(w, http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, rootMessage(err))
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrUserBlocked):
		writeMessage(w, http.StatusForbidden, rootMessage(err))
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrItemNotInCart):
		writeMessage(w, http.StatusNotFound, rootMessage(err))
	case errors.Is(err, domain.ErrCartVersionConflict),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrPaymentNotSettled),
		errors.Is(err, domain.ErrPaymentMissing),
		errors.Is(err, domain.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, rootMessage(err))
	case errors.Is(err, context.DeadlineExceeded):
		writeMessage(w, http.StatusServiceUnavailable, "unavailable")
	default:
		slog.Error("request failed",
			"op", op, "path", r.URL.Path, "err", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// rootMessage strips the op chain so callers only see the sentinel text.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		errInvalidJSON,
		domain.ErrInvalidQuantity,
		domain.ErrDuplicateItem,
		domain.ErrEmptyOrder,
		domain.ErrUnknownOrderStatus,
		domain.ErrUnknownReviewStatus,
		domain.ErrInvalidOTP,
		domain.ErrUnauthorized,
		domain.ErrInvalidCredentials,
		domain.ErrForbidden,
		domain.ErrUserBlocked,
		domain.ErrNotFound,
		domain.ErrItemNotInCart,
		domain.ErrCartVersionConflict,
		domain.ErrIllegalTransition,
		domain.ErrPaymentNotSettled,
		domain.ErrPaymentMissing,
		domain.ErrEmailTaken,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}
