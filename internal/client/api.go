package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/niksmo/artshop/internal/adapter/httphandler"
	"github.com/niksmo/artshop/internal/core/domain"
)

func (c *Client) ListProducts(
	ctx context.Context, category string, limit, offset int,
) ([]httphandler.Product, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var ps []httphandler.Product
	err := c.do(ctx, http.MethodGet, "products", q, nil, &ps)
	return ps, err
}

func (c *Client) SearchProducts(ctx context.Context, query string) ([]httphandler.Product, error) {
	var ps []httphandler.Product
	err := c.do(ctx, http.MethodGet, "products/search/"+url.PathEscape(query), nil, nil, &ps)
	return ps, err
}

func (c *Client) GetProduct(ctx context.Context, productID string) (httphandler.Product, error) {
	var p httphandler.Product
	err := c.do(ctx, http.MethodGet, "products/"+url.PathEscape(productID), nil, nil, &p)
	return p, err
}

func (c *Client) Register(ctx context.Context, email, name, password string) (httphandler.User, error) {
	var u httphandler.User
	err := c.do(ctx, http.MethodPost, "users/register", nil, httphandler.RegisterRequest{
		Email: email, Name: name, Password: password,
	}, &u)
	return u, err
}

// Login stores the issued token for the following calls.
func (c *Client) Login(ctx context.Context, email, password string) (httphandler.LoginResponse, error) {
	var res httphandler.LoginResponse
	err := c.do(ctx, http.MethodPost, "users/login", nil, httphandler.LoginRequest{
		Email: email, Password: password,
	}, &res)
	if err != nil {
		return res, err
	}
	return res, c.tokens.Save(res.Token)
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "users/logout", nil, nil, nil)
	if err != nil {
		return err
	}
	return c.tokens.Clear()
}

// Me answers [domain.ErrUnauthorized] and forgets the token when the
// session is gone.
func (c *Client) Me(ctx context.Context) (httphandler.User, error) {
	var u httphandler.User
	err := c.do(ctx, http.MethodGet, "users/me", nil, nil, &u)
	return u, err
}

func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "users/send-otp", nil,
		httphandler.SendOTPRequest{Email: email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return c.do(ctx, http.MethodPost, "users/reset-password", nil,
		httphandler.ResetPasswordRequest{Email: email, OTP: otp, NewPassword: newPassword}, nil)
}

func (c *Client) GetCart(ctx context.Context) (domain.Cart, error) {
	var cart httphandler.Cart
	if err := c.do(ctx, http.MethodGet, "users/cart", nil, nil, &cart); err != nil {
		return domain.Cart{}, err
	}
	return cart.ToDomain(), nil
}

// ReplaceCart sends the whole item array with the version last read.
func (c *Client) ReplaceCart(
	ctx context.Context, lines []domain.CartLine, version int64,
) (domain.Cart, error) {
	items := make([]httphandler.CartLine, len(lines))
	for i, l := range lines {
		items[i] = httphandler.CartLine(l)
	}
	var cart httphandler.Cart
	err := c.do(ctx, http.MethodPut, "users/cart", nil,
		httphandler.ReplaceCartRequest{Items: items, Version: version}, &cart)
	if err != nil {
		return domain.Cart{}, err
	}
	return cart.ToDomain(), nil
}

func (c *Client) PlaceOrder(
	ctx context.Context, lines []domain.CartLine, name, phone, address string,
) (httphandler.Order, error) {
	products := make([]httphandler.CartLine, len(lines))
	for i, l := range lines {
		products[i] = httphandler.CartLine(l)
	}
	var o httphandler.Order
	err := c.do(ctx, http.MethodPost, "orders", nil, httphandler.PlaceOrderRequest{
		Products: products, Name: name, Phone: phone, Address: address,
	}, &o)
	return o, err
}

func (c *Client) ListOrders(ctx context.Context) ([]httphandler.Order, error) {
	var list []httphandler.Order
	err := c.do(ctx, http.MethodGet, "orders", nil, nil, &list)
	return list, err
}

func (c *Client) ConfirmPayment(ctx context.Context, orderID string) (httphandler.Order, error) {
	var o httphandler.Order
	err := c.do(ctx, http.MethodPost,
		"orders/"+url.PathEscape(orderID)+"/confirm-payment", nil, nil, &o)
	return o, err
}

func (c *Client) CreatePaymentIntent(ctx context.Context, orderID string) (httphandler.PaymentIntent, error) {
	var pi httphandler.PaymentIntent
	err := c.do(ctx, http.MethodPost, "payment/create-payment-intent", nil,
		httphandler.PaymentIntentRequest{OrderID: orderID}, &pi)
	return pi, err
}

func (c *Client) Wishlist(ctx context.Context) ([]httphandler.WishlistEntry, error) {
	var es []httphandler.WishlistEntry
	err := c.do(ctx, http.MethodGet, "users/wishlist", nil, nil, &es)
	return es, err
}

func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodPut, "users/wishlist/"+url.PathEscape(productID), nil, nil, nil)
}

func (c *Client) SubmitReview(
	ctx context.Context, productID string, rating int, comment string,
) (httphandler.Review, error) {
	var rv httphandler.Review
	err := c.do(ctx, http.MethodPost, "reviews", nil, httphandler.ReviewRequest{
		ProductID: productID, Rating: rating, Comment: comment,
	}, &rv)
	return rv, err
}

func (c *Client) ProductReviews(ctx context.Context, productID string) ([]httphandler.Review, error) {
	var rs []httphandler.Review
	err := c.do(ctx, http.MethodGet, "reviews/product/"+url.PathEscape(productID), nil, nil, &rs)
	return rs, err
}
