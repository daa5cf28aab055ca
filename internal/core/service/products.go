package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/niksmo/artshop/internal/core/domain"
)

const defaultSearchLimit = 50

func (s *Service) ListProducts(
	ctx context.Context, q domain.ProductQuery,
) ([]domain.Product, error) {
	const op = "Service.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.products.ListProducts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.fillSales(ps)
	return ps, nil
}

func (s *Service) SearchProducts(
	ctx context.Context, q string, limit int,
) ([]domain.Product, error) {
	const op = "Service.SearchProducts"

	q = strings.TrimSpace(q)
	if q == "" {
		return s.ListProducts(ctx, domain.ProductQuery{Limit: limit})
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ps, err := s.products.SearchProducts(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.fillSales(ps)
	return ps, nil
}

func (s *Service) GetProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "Service.GetProduct"

	p, err := s.products.ReadProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	p.SoldCount = s.soldCount(p.ProductID)
	return p, nil
}

func (s *Service) CreateProduct(
	ctx context.Context, sess domain.Session, p domain.Product,
) (domain.Product, error) {
	const op = "Service.CreateProduct"

	if err := requireAdmin(sess); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if p.ProductID == "" {
		p.ProductID = uuid.NewString()
	}

	p, err := s.products.StoreProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Service) UpdateProduct(
	ctx context.Context, sess domain.Session, p domain.Product,
) (domain.Product, error) {
	const op = "Service.UpdateProduct"

	if err := requireAdmin(sess); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.products.UpdateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Service) DeleteProduct(
	ctx context.Context, sess domain.Session, productID string,
) error {
	const op = "Service.DeleteProduct"

	if err := requireAdmin(sess); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.products.DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) fillSales(ps []domain.Product) {
	for i := range ps {
		ps[i].SoldCount = s.soldCount(ps[i].ProductID)
	}
}

// snapshotLines resolves cart lines against the catalog.
func (s *Service) snapshotLines(
	ctx context.Context, lines []domain.CartLine,
) ([]domain.LineItem, error) {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	catalog, err := s.products.ReadProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(lines))
	for _, l := range lines {
		p, ok := catalog[l.ProductID]
		if !ok {
			return nil, domain.NewValidationError(
				"productId", "unknown product "+l.ProductID,
			)
		}
		items = append(items, p.Snapshot(l.Qty))
	}
	return items, nil
}
