package httphandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/artshop/internal/core/domain"
)

func (h Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ListProducts"

	q := r.URL.Query()
	query := domain.ProductQuery{Category: q.Get("category")}

	var err error
	if query.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		writeErr(w, r, op, err)
		return
	}
	if query.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		writeErr(w, r, op, err)
		return
	}

	ps, err := h.svc.Catalog.ListProducts(r.Context(), query)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromProducts(ps))
}

func (h Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.SearchProducts"

	limit, err := intParam(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		writeErr(w, r, op, err)
		return
	}

	ps, err := h.svc.Catalog.SearchProducts(r.Context(), chi.URLParam(r, "q"), limit)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromProducts(ps))
}

func (h Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.GetProduct"

	p, err := h.svc.Catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromProduct(p))
}

func (h Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.CreateProduct"

	var req Product
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	p, err := h.svc.Catalog.CreateProduct(r.Context(), sessionFrom(r), req.toDomain())
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, fromProduct(p))
}

func (h Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.UpdateProduct"

	var req Product
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}
	p := req.toDomain()
	p.ProductID = chi.URLParam(r, "id")

	p, err := h.svc.Catalog.UpdateProduct(r.Context(), sessionFrom(r), p)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromProduct(p))
}

func (h Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.DeleteProduct"

	err := h.svc.Catalog.DeleteProduct(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intParam(v, field string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(field, "must be a non-negative integer")
	}
	return n, nil
}
