package httphandler

import (
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/pricing"
	"github.com/shopspring/decimal"
)

// Wire types of the REST API. The storefront client decodes the same
// types.
type (
	Product struct {
		ProductID     string            `json:"productId"`
		Name          string            `json:"name"`
		Description   string            `json:"description"`
		Category      string            `json:"category"`
		Price         decimal.Decimal   `json:"price"`
		LabelledPrice decimal.Decimal   `json:"labelledPrice"`
		Stock         int               `json:"stock"`
		Images        []string          `json:"images"`
		DisplayImage  string            `json:"displayImage"`
		Attributes    map[string]string `json:"attributes,omitempty"`
		SoldCount     int64             `json:"soldCount"`
	}

	LineItem struct {
		ProductID     string          `json:"productId"`
		Name          string          `json:"name"`
		Image         string          `json:"image"`
		Price         decimal.Decimal `json:"price"`
		LabelledPrice decimal.Decimal `json:"labelledPrice"`
		Qty           int             `json:"qty"`
	}

	Totals struct {
		ItemTotal         decimal.Decimal `json:"itemTotal"`
		FinalTotal        decimal.Decimal `json:"finalTotal"`
		Discount          decimal.Decimal `json:"discount"`
		SavingsPercentage string          `json:"savingsPercentage"`
	}

	Cart struct {
		UserID    string     `json:"userId"`
		Items     []LineItem `json:"items"`
		Version   int64      `json:"version"`
		Totals    Totals     `json:"totals"`
		UpdatedAt time.Time  `json:"updatedAt"`
	}

	CartLine struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}

	ReplaceCartRequest struct {
		Items   []CartLine `json:"items"`
		Version int64      `json:"version"`
	}

	UpsertItemRequest struct {
		Qty     int   `json:"qty"`
		Version int64 `json:"version"`
	}

	OrderLine struct {
		ProductID     string          `json:"productId"`
		Name          string          `json:"name"`
		Price         decimal.Decimal `json:"price"`
		LabelledPrice decimal.Decimal `json:"labelledPrice"`
		Qty           int             `json:"qty"`
	}

	Order struct {
		ID              string          `json:"id"`
		UserID          string          `json:"userId"`
		Products        []OrderLine     `json:"products"`
		Name            string          `json:"name"`
		Phone           string          `json:"phone"`
		Address         string          `json:"address"`
		Email           string          `json:"email"`
		Total           decimal.Decimal `json:"total"`
		Status          string          `json:"status"`
		PaymentIntentID string          `json:"paymentIntentId,omitempty"`
		CreatedAt       time.Time       `json:"createdAt"`
		UpdatedAt       time.Time       `json:"updatedAt"`
	}

	PlaceOrderRequest struct {
		Products []CartLine `json:"products"`
		Name     string     `json:"name"`
		Phone    string     `json:"phone"`
		Address  string     `json:"address"`
	}

	StatusRequest struct {
		Status string `json:"status"`
	}

	PaymentIntentRequest struct {
		OrderID string `json:"orderId"`
	}

	PaymentIntent struct {
		OrderID      string          `json:"orderId"`
		IntentID     string          `json:"intentId"`
		ClientSecret string          `json:"clientSecret"`
		Amount       decimal.Decimal `json:"amount"`
		Currency     string          `json:"currency"`
	}

	WebhookRequest struct {
		IntentID string `json:"intentId"`
		Status   string `json:"status"`
	}

	User struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Role      string    `json:"role"`
		Blocked   bool      `json:"blocked"`
		CreatedAt time.Time `json:"createdAt"`
	}

	RegisterRequest struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		Role      string    `json:"role"`
	}

	BlockRequest struct {
		Blocked bool `json:"blocked"`
	}

	SendOTPRequest struct {
		Email string `json:"email"`
	}

	ResetPasswordRequest struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}

	Review struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		ProductID string    `json:"productId"`
		Rating    int       `json:"rating"`
		Comment   string    `json:"comment"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"createdAt"`
	}

	ReviewRequest struct {
		ProductID string `json:"productId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}

	WishlistEntry struct {
		ProductID string    `json:"productId"`
		AddedAt   time.Time `json:"addedAt"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
		Field string `json:"field,omitempty"`
	}
)

func fromProduct(p domain.Product) Product {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return Product{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price,
		LabelledPrice: p.LabelledPrice,
		Stock:         p.Stock,
		Images:        images,
		DisplayImage:  p.DisplayImage,
		Attributes:    p.Attributes,
		SoldCount:     p.SoldCount,
	}
}

func fromProducts(ps []domain.Product) []Product {
	res := make([]Product, len(ps))
	for i := range ps {
		res[i] = fromProduct(ps[i])
	}
	return res
}

func (p Product) toDomain() domain.Product {
	return domain.Product{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price,
		LabelledPrice: p.LabelledPrice,
		Stock:         p.Stock,
		Images:        p.Images,
		DisplayImage:  p.DisplayImage,
		Attributes:    p.Attributes,
	}
}

func FromTotals(t pricing.Totals) Totals {
	return Totals{
		ItemTotal:         t.ItemTotal,
		FinalTotal:        t.FinalTotal,
		Discount:          t.Discount,
		SavingsPercentage: t.SavingsPercentage(),
	}
}

func fromCart(c domain.Cart) Cart {
	items := make([]LineItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = LineItem(it)
	}
	return Cart{
		UserID:    c.UserID,
		Items:     items,
		Version:   c.Version,
		Totals:    FromTotals(pricing.Compute(c.Items)),
		UpdatedAt: c.UpdatedAt,
	}
}

// ToDomain converts the wire cart back for client side pricing.
func (c Cart) ToDomain() domain.Cart {
	items := make([]domain.LineItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = domain.LineItem(it)
	}
	return domain.Cart{
		UserID:    c.UserID,
		Items:     items,
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCartLines(ls []CartLine) []domain.CartLine {
	res := make([]domain.CartLine, len(ls))
	for i, l := range ls {
		res[i] = domain.CartLine(l)
	}
	return res
}

func fromOrder(o domain.Order) Order {
	lines := make([]OrderLine, len(o.Products))
	for i, l := range o.Products {
		lines[i] = OrderLine(l)
	}
	return Order{
		ID:              o.ID,
		UserID:          o.UserID,
		Products:        lines,
		Name:            o.Name,
		Phone:           o.Phone,
		Address:         o.Address,
		Email:           o.Email,
		Total:           o.Total,
		Status:          o.Status.String(),
		PaymentIntentID: o.PaymentIntentID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func fromOrders(list []domain.Order) []Order {
	res := make([]Order, len(list))
	for i := range list {
		res[i] = fromOrder(list[i])
	}
	return res
}

func fromUser(u domain.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role.String(),
		Blocked:   u.Blocked,
		CreatedAt: u.CreatedAt,
	}
}

func fromReview(r domain.Review) Review {
	return Review{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Status:    r.Status.String(),
		CreatedAt: r.CreatedAt,
	}
}

func fromReviews(rs []domain.Review) []Review {
	res := make([]Review, len(rs))
	for i := range rs {
		res[i] = fromReview(rs[i])
	}
	return res
}
