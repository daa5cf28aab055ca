package storefront

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/pricing"
)

// CartStore is the local copy of the server cart. Every change sends the
// whole item array with the version last seen; the server rejects stale
// writes with [domain.ErrCartVersionConflict].
type CartStore struct {
	api CartAPI
	sel *Selection

	mu   sync.Mutex
	cart domain.Cart
}

func NewCartStore(api CartAPI, sel *Selection) *CartStore {
	if sel == nil {
		sel = NewSelection()
	}
	return &CartStore{api: api, sel: sel, cart: domain.NewCart("")}
}

func (s *CartStore) Selection() *Selection {
	return s.sel
}

// Fetch replaces the local copy with the server cart and clears the
// selection. On error the local copy is kept.
func (s *CartStore) Fetch(ctx context.Context) error {
	const op = "CartStore.Fetch"

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.api.GetCart(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.cart = c
	s.sel.Reset()
	return nil
}

// UpdateQuantity changes the quantity of a product by delta. A result
// below one is ignored without a request.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, delta int) error {
	const op = "CartStore.UpdateQuantity"

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.cart.Index(productID)
	if i < 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrItemNotInCart)
	}
	newQty := s.cart.Items[i].Qty + delta
	if newQty < 1 {
		return nil
	}

	lines := s.cart.WithoutItems()
	lines[i].Qty = newQty
	if err := s.replace(ctx, lines); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CartStore) Remove(ctx context.Context, productID string) error {
	const op = "CartStore.Remove"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.Index(productID) < 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrItemNotInCart)
	}
	if err := s.replace(ctx, s.cart.WithoutItems(productID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.sel.Remove(productID)
	return nil
}

// Add puts qty more of a product into the cart.
func (s *CartStore) Add(ctx context.Context, productID string, qty int) error {
	const op = "CartStore.Add"

	if qty < 1 {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.cart.WithoutItems()
	if i := s.cart.Index(productID); i >= 0 {
		lines[i].Qty += qty
	} else {
		lines = append(lines, domain.CartLine{ProductID: productID, Qty: qty})
	}
	if err := s.replace(ctx, lines); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// replace must be called with mu held.
func (s *CartStore) replace(ctx context.Context, lines []domain.CartLine) error {
	c, err := s.api.ReplaceCart(ctx, lines, s.cart.Version)
	if err != nil {
		return err
	}
	s.cart = c
	return nil
}

func (s *CartStore) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cart.Items)
}

func (s *CartStore) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Version
}

func (s *CartStore) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart
	c.Items = slices.Clone(c.Items)
	return c
}

func (s *CartStore) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Compute(s.cart.Items)
}

func (s *CartStore) SelectedTotals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Selected(s.cart.Items, s.sel.Has)
}
