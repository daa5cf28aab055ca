package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID     string
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal
	LabelledPrice decimal.Decimal
	Stock         int
	Images        []string
	DisplayImage  string
	Attributes    map[string]string
	SoldCount     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Normalize fills defaults the catalog relies on.
func (p *Product) Normalize() {
	if p.LabelledPrice.IsZero() {
		p.LabelledPrice = p.Price
	}
	if p.DisplayImage == "" && len(p.Images) != 0 {
		p.DisplayImage = p.Images[0]
	}
}

func (p Product) Validate() error {
	switch {
	case p.Name == "":
		return NewValidationError("name", "required")
	case p.Price.IsNegative():
		return NewValidationError("price", "must not be negative")
	case p.LabelledPrice.LessThan(p.Price):
		return NewValidationError("labelledPrice", "must not be less than price")
	case p.Stock < 0:
		return NewValidationError("stock", "must not be negative")
	}
	return nil
}

// Snapshot captures the product fields a cart line keeps.
func (p Product) Snapshot(qty int) LineItem {
	return LineItem{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Image:         p.DisplayImage,
		Price:         p.Price,
		LabelledPrice: p.LabelledPrice,
		Qty:           qty,
	}
}

type ProductQuery struct {
	Category string
	Limit    int
	Offset   int
}
