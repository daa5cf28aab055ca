package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/artshop/internal/core/domain"
)

func (h Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.SubmitReview"

	var req ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}

	rv, err := h.svc.Reviews.SubmitReview(r.Context(), sessionFrom(r), domain.Review{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, fromReview(rv))
}

func (h Handler) ProductReviews(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ProductReviews"

	rs, err := h.svc.Reviews.ProductReviews(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromReviews(rs))
}

func (h Handler) MyReviews(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.MyReviews"

	rs, err := h.svc.Reviews.MyReviews(r.Context(), sessionFrom(r))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromReviews(rs))
}

func (h Handler) AllReviews(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.AllReviews"

	rs, err := h.svc.Reviews.AllReviews(r.Context(), sessionFrom(r))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromReviews(rs))
}

func (h Handler) SetReviewStatus(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.SetReviewStatus"

	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, op, err)
		return
	}
	status, err := domain.ParseReviewStatus(req.Status)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}

	rv, err := h.svc.Reviews.SetReviewStatus(
		r.Context(), sessionFrom(r), chi.URLParam(r, "id"), status,
	)
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromReview(rv))
}

func (h Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.DeleteReview"

	err := h.svc.Reviews.DeleteReview(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
