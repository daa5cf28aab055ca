package httphandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/artshop/internal/core/domain"
)

func (h Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.GetCart"

	c, err := h.svc.Carts.GetCart(r.Context(), sessionFrom(r))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCart(c))
}

// ReplaceCart stores the whole item array. The version must be the one
// the client last read.
func (h Handler) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ReplaceCart"

	var req ReplaceCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	c, err := h.svc.Carts.ReplaceCart(
		r.Context(), sessionFrom(r), toCartLines(req.Items), req.Version,
	)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCart(c))
}

func (h Handler) UpsertCartItem(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.UpsertCartItem"

	var req UpsertItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	line := domain.CartLine{ProductID: chi.URLParam(r, "productId"), Qty: req.Qty}
	c, err := h.svc.Carts.UpsertCartItem(r.Context(), sessionFrom(r), line, req.Version)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCart(c))
}

func (h Handler) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.DeleteCartItem"

	version, err := strconv.ParseInt(r.URL.Query().Get("version"), 10, 64)
	if err != nil {
		writeErr(w, r, op, domain.NewValidationError("version", "required integer"))
		return
	}

	c, err := h.svc.Carts.DeleteCartItem(
		r.Context(), sessionFrom(r), chi.URLParam(r, "productId"), version,
	)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCart(c))
}

func (h Handler) Wishlist(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Wishlist"

	es, err := h.svc.Wishlist.Wishlist(r.Context(), sessionFrom(r))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	res := make([]WishlistEntry, len(es))
	for i, e := range es {
		res[i] = WishlistEntry{ProductID: e.ProductID, AddedAt: e.AddedAt}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.AddToWishlist"

	err := h.svc.Wishlist.AddToWishlist(r.Context(), sessionFrom(r), chi.URLParam(r, "productId"))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.RemoveFromWishlist"

	err := h.svc.Wishlist.RemoveFromWishlist(r.Context(), sessionFrom(r), chi.URLParam(r, "productId"))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
