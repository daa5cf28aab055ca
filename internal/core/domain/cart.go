package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	ProductID     string
	Name          string
	Image         string
	Price         decimal.Decimal
	LabelledPrice decimal.Decimal
	Qty           int
}

// A Cart is replaced as a whole. Version grows by one on every stored
// mutation and guards writes against stale copies.
type Cart struct {
	UserID    string
	Items     []LineItem
	Version   int64
	UpdatedAt time.Time
}

func NewCart(userID string) Cart {
	return Cart{UserID: userID, Items: []LineItem{}}
}

func (c Cart) Index(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) IDs() []string {
	ids := make([]string, len(c.Items))
	for i := range c.Items {
		ids[i] = c.Items[i].ProductID
	}
	return ids
}

// A CartLine is the client supplied part of a line item.
type CartLine struct {
	ProductID string
	Qty       int
}

// ValidateLines enforces the stored cart invariants: every quantity is
// at least one and a product appears once.
func ValidateLines(lines []CartLine) error {
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return NewValidationError("productId", "required")
		}
		if l.Qty < 1 {
			return ErrInvalidQuantity
		}
		if _, ok := seen[l.ProductID]; ok {
			return ErrDuplicateItem
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

// WithoutItems returns a copy of the cart lines minus the given products.
func (c Cart) WithoutItems(productIDs ...string) []CartLine {
	drop := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		drop[id] = struct{}{}
	}
	lines := make([]CartLine, 0, len(c.Items))
	for _, it := range c.Items {
		if _, ok := drop[it.ProductID]; ok {
			continue
		}
		lines = append(lines, CartLine{ProductID: it.ProductID, Qty: it.Qty})
	}
	return lines
}
