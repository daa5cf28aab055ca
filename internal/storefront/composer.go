package storefront

import (
	"fmt"
	"sync"

	"github.com/niksmo/artshop/internal/core/checkout"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/pricing"
)

// A Handoff is everything the payment step needs. It lives only until
// the payment finishes.
type Handoff struct {
	Items   []domain.LineItem
	Totals  pricing.Totals
	Name    string
	Phone   string
	Address string
	Email   string
}

func (h Handoff) Lines() []domain.CartLine {
	lines := make([]domain.CartLine, len(h.Items))
	for i, it := range h.Items {
		lines[i] = domain.CartLine{ProductID: it.ProductID, Qty: it.Qty}
	}
	return lines
}

// Composer collects the shipping form for a cart snapshot. The form is
// revalidated on every change.
type Composer struct {
	email string
	cart  domain.Cart
	sel   *Selection

	mu   sync.Mutex
	form checkout.Form
	errs checkout.Errors
}

// NewComposer takes a snapshot of the cart. A nil selection checks out
// the whole cart.
func NewComposer(email string, cart domain.Cart, sel *Selection) *Composer {
	c := &Composer{email: email, cart: cart, sel: sel}
	c.errs = checkout.Validate(c.form)
	return c
}

func (c *Composer) Set(field checkout.Field, value string) checkout.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Set(field, value)
	c.errs = checkout.Validate(c.form)
	return c.errs
}

func (c *Composer) Form() checkout.Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *Composer) Errors() checkout.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

// Submit builds the hand-off from the selected items, or from the whole
// cart when nothing is selected.
func (c *Composer) Submit() (Handoff, error) {
	const op = "Composer.Submit"

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.errs.Valid() {
		return Handoff{}, fmt.Errorf("%s: %w", op, ErrFormInvalid)
	}

	items := c.items()
	if len(items) == 0 {
		return Handoff{}, fmt.Errorf("%s: %w", op, ErrEmptyCheckout)
	}

	return Handoff{
		Items:   items,
		Totals:  pricing.Compute(items),
		Name:    c.form.Name,
		Phone:   c.form.Phone,
		Address: checkout.FullAddress(c.form),
		Email:   c.email,
	}, nil
}

func (c *Composer) items() []domain.LineItem {
	if c.sel == nil || c.sel.Len() == 0 {
		return append([]domain.LineItem(nil), c.cart.Items...)
	}
	var items []domain.LineItem
	for _, it := range c.cart.Items {
		if c.sel.Has(it.ProductID) {
			items = append(items, it)
		}
	}
	return items
}
