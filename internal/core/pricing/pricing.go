// Package pricing derives cart totals from line items.
//
// All arithmetic is exact decimal; rounding happens only in
// [Totals.SavingsPercentage] and [Format].
package pricing

import (
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	ItemTotal  decimal.Decimal
	FinalTotal decimal.Decimal
	Discount   decimal.Decimal
}

// Compute sums labelled and selling prices over items. Negative prices and
// quantities count as zero.
func Compute(items []domain.LineItem) Totals {
	var t Totals
	for _, it := range items {
		t.ItemTotal = t.ItemTotal.Add(LineLabelledTotal(it))
		t.FinalTotal = t.FinalTotal.Add(LineTotal(it))
	}
	t.Discount = t.ItemTotal.Sub(t.FinalTotal)
	return t
}

// Selected computes totals for the items whose product id is selected.
func Selected(items []domain.LineItem, selected func(productID string) bool) Totals {
	picked := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		if selected(it.ProductID) {
			picked = append(picked, it)
		}
	}
	return Compute(picked)
}

func LineTotal(it domain.LineItem) decimal.Decimal {
	return nonNegative(it.Price).Mul(qty(it))
}

func LineLabelledTotal(it domain.LineItem) decimal.Decimal {
	return nonNegative(it.LabelledPrice).Mul(qty(it))
}

// SavingsPercentage is the discount share of the item total rounded to one
// decimal, or "0" without a positive discount.
func (t Totals) SavingsPercentage() string {
	if !t.Discount.IsPositive() || !t.ItemTotal.IsPositive() {
		return "0"
	}
	return t.Discount.Div(t.ItemTotal).Mul(hundred).StringFixed(1)
}

// Format renders an amount with two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func qty(it domain.LineItem) decimal.Decimal {
	if it.Qty < 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(it.Qty))
}
