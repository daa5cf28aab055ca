package service

import (
	"context"
	"fmt"

	"github.com/niksmo/artshop/internal/core/domain"
)

func (s *Service) Wishlist(
	ctx context.Context, sess domain.Session,
) ([]domain.WishlistEntry, error) {
	const op = "Service.Wishlist"

	es, err := s.wishlist.ListWishlist(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return es, nil
}

// AddToWishlist is idempotent.
func (s *Service) AddToWishlist(
	ctx context.Context, sess domain.Session, productID string,
) error {
	const op = "Service.AddToWishlist"

	if _, err := s.products.ReadProduct(ctx, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.wishlist.AddWishlistEntry(ctx, domain.WishlistEntry{
		UserID:    sess.UserID,
		ProductID: productID,
		AddedAt:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) RemoveFromWishlist(
	ctx context.Context, sess domain.Session, productID string,
) error {
	const op = "Service.RemoveFromWishlist"

	err := s.wishlist.DeleteWishlistEntry(ctx, sess.UserID, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
