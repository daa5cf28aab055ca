package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
)

func (s *Service) GetCart(
	ctx context.Context, sess domain.Session,
) (domain.Cart, error) {
	const op = "Service.GetCart"
	log := slog.With("op", op)

	v, err, _ := s.sfg.Do("cart:"+sess.UserID, func() (any, error) {
		c, err := s.cacheGet(ctx, sess.UserID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, port.ErrCacheMiss) {
			log.Warn("cart cache unavailable", "err", err)
		}

		c, err = s.readCart(ctx, sess.UserID)
		if err != nil {
			return nil, err
		}
		s.cacheSet(ctx, c)
		return c, nil
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return v.(domain.Cart), nil
}

func (s *Service) ReplaceCart(
	ctx context.Context, sess domain.Session,
	lines []domain.CartLine, version int64,
) (domain.Cart, error) {
	const op = "Service.ReplaceCart"

	c, err := s.writeLines(ctx, sess.UserID, lines, version)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Service) UpsertCartItem(
	ctx context.Context, sess domain.Session,
	line domain.CartLine, version int64,
) (domain.Cart, error) {
	const op = "Service.UpsertCartItem"

	if line.Qty < 1 {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, domain.ErrInvalidQuantity)
	}

	cur, err := s.readCart(ctx, sess.UserID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	if cur.Version != version {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, domain.ErrCartVersionConflict)
	}

	lines := cur.WithoutItems()
	if i := cur.Index(line.ProductID); i >= 0 {
		lines[i].Qty = line.Qty
	} else {
		lines = append(lines, line)
	}

	c, err := s.writeLines(ctx, sess.UserID, lines, version)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Service) DeleteCartItem(
	ctx context.Context, sess domain.Session,
	productID string, version int64,
) (domain.Cart, error) {
	const op = "Service.DeleteCartItem"

	cur, err := s.readCart(ctx, sess.UserID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	if cur.Version != version {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, domain.ErrCartVersionConflict)
	}
	if cur.Index(productID) < 0 {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, domain.ErrItemNotInCart)
	}

	c, err := s.writeLines(ctx, sess.UserID, cur.WithoutItems(productID), version)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// readCart returns an empty cart at version zero for users who never
// stored one.
func (s *Service) readCart(ctx context.Context, userID string) (domain.Cart, error) {
	c, err := s.carts.ReadCart(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCart(userID), nil
	}
	return c, err
}

func (s *Service) writeLines(
	ctx context.Context, userID string,
	lines []domain.CartLine, version int64,
) (domain.Cart, error) {
	if err := domain.ValidateLines(lines); err != nil {
		return domain.Cart{}, err
	}

	items := []domain.LineItem{}
	if len(lines) != 0 {
		var err error
		items, err = s.snapshotLines(ctx, lines)
		if err != nil {
			return domain.Cart{}, err
		}
	}

	c := domain.NewCart(userID)
	c.Items = items
	c.UpdatedAt = s.now()

	stored, err := s.carts.WriteCart(ctx, c, version)
	if err != nil {
		s.cacheDelete(ctx, userID)
		return domain.Cart{}, err
	}
	s.cacheSet(ctx, stored)
	return stored, nil
}

// dropPurchased removes paid products from the buyer's cart. A
// concurrent cart edit wins; the buyer then still sees the items.
func (s *Service) dropPurchased(ctx context.Context, o domain.Order) {
	const op = "Service.dropPurchased"
	log := slog.With("op", op, "orderID", o.ID)

	cur, err := s.readCart(ctx, o.UserID)
	if err != nil {
		log.Warn("failed to read cart", "err", err)
		return
	}

	ids := make([]string, len(o.Products))
	for i, l := range o.Products {
		ids[i] = l.ProductID
	}
	lines := cur.WithoutItems(ids...)
	if len(lines) == len(cur.Items) {
		return
	}

	if _, err := s.writeLines(ctx, o.UserID, lines, cur.Version); err != nil {
		log.Warn("failed to drop purchased items", "err", err)
	}
}
