package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/artshop/internal/core/domain"
)

func (h Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Register"

	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	u, err := h.svc.Accounts.Register(r.Context(), domain.Registration(req))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, fromUser(u))
}

func (h Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Login"

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	s, err := h.svc.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Role:      s.Role.String(),
	})
}

func (h Handler) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Logout"

	if err := h.svc.Accounts.Logout(r.Context(), sessionFrom(r)); err != nil {
		writeErr(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Me"

	u, err := h.svc.Accounts.Me(r.Context(), sessionFrom(r))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromUser(u))
}

func (h Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ListUsers"

	us, err := h.svc.Accounts.ListUsers(r.Context(), sessionFrom(r))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	res := make([]User, len(us))
	for i := range us {
		res[i] = fromUser(us[i])
	}
	writeJSON(w, http.StatusOK, res)
}

func (h Handler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.SetBlocked"

	var req BlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	err := h.svc.Accounts.SetBlocked(
		r.Context(), sessionFrom(r), chi.URLParam(r, "id"), req.Blocked,
	)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendOTP answers the same whether the email is known or not.
func (h Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.SendOTP"

	var req SendOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	if err := h.svc.Accounts.SendOTP(r.Context(), req.Email); err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "otp sent"})
}

func (h Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ResetPassword"

	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	err := h.svc.Accounts.ResetPassword(r.Context(), domain.PasswordReset(req))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
