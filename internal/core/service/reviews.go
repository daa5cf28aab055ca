package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/niksmo/artshop/internal/core/domain"
)

// SubmitReview stores the caller's review of a product. A second review
// of the same product replaces the first and goes back to moderation.
func (s *Service) SubmitReview(
	ctx context.Context, sess domain.Session, r domain.Review,
) (domain.Review, error) {
	const op = "Service.SubmitReview"

	r.Comment = strings.TrimSpace(r.Comment)
	if err := r.Validate(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.products.ReadProduct(ctx, r.ProductID); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	r.ID = uuid.NewString()
	r.UserID = sess.UserID
	r.Status = domain.ReviewPending
	r.CreatedAt = s.now()

	r, err := s.reviews.UpsertReview(ctx, r)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s *Service) ProductReviews(
	ctx context.Context, productID string,
) ([]domain.Review, error) {
	const op = "Service.ProductReviews"

	rs, err := s.reviews.ListProductReviews(ctx, productID, domain.ReviewApproved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rs, nil
}

func (s *Service) MyReviews(
	ctx context.Context, sess domain.Session,
) ([]domain.Review, error) {
	const op = "Service.MyReviews"

	rs, err := s.reviews.ListUserReviews(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rs, nil
}

func (s *Service) AllReviews(
	ctx context.Context, sess domain.Session,
) ([]domain.Review, error) {
	const op = "Service.AllReviews"

	if err := requireAdmin(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rs, err := s.reviews.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rs, nil
}

func (s *Service) SetReviewStatus(
	ctx context.Context, sess domain.Session,
	reviewID string, status domain.ReviewStatus,
) (domain.Review, error) {
	const op = "Service.SetReviewStatus"

	if err := requireAdmin(sess); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	r, err := s.reviews.UpdateReviewStatus(ctx, reviewID, status)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// DeleteReview lets authors and admins remove a review.
func (s *Service) DeleteReview(
	ctx context.Context, sess domain.Session, reviewID string,
) error {
	const op = "Service.DeleteReview"

	r, err := s.reviews.ReadReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if r.UserID != sess.UserID && !sess.IsAdmin() {
		return fmt.Errorf("%s: %w", op, domain.ErrForbidden)
	}

	if err := s.reviews.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
