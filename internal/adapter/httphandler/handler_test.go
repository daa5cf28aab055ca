package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec"

var (
	customer = domain.Session{Token: "cust", UserID: "u1", Email: "nimal@example.com", Role: domain.RoleCustomer}
	admin    = domain.Session{Token: "adm", UserID: "a1", Email: "admin@example.com", Role: domain.RoleAdmin}
)

func newTestRouter(t *testing.T) (*MockShop, http.Handler) {
	t.Helper()
	m := new(MockShop)
	m.On("Authenticate", mock.Anything, "cust").Return(customer, nil).Maybe()
	m.On("Authenticate", mock.Anything, "adm").Return(admin, nil).Maybe()
	m.On("Authenticate", mock.Anything, mock.Anything).
		Return(domain.Session{}, domain.ErrUnauthorized).Maybe()

	svc := Services{
		Catalog:  m,
		Carts:    m,
		Orders:   m,
		Payments: m,
		Accounts: m,
		Reviews:  m,
		Wishlist: m,
	}
	return m, NewRouter(svc, webhookSecret)
}

func do(
	t *testing.T, h http.Handler, method, path, token, body string,
) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	return er
}

func TestHealth(t *testing.T) {
	_, h := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductsRoutes(t *testing.T) {
	vase := domain.Product{
		ProductID:     "vase",
		Name:          "Clay vase",
		Price:         decimal.RequireFromString("100"),
		LabelledPrice: decimal.RequireFromString("120"),
		SoldCount:     3,
	}

	t.Run("List", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("ListProducts", mock.Anything, domain.ProductQuery{Category: "pottery", Limit: 10}).
			Return([]domain.Product{vase}, nil)

		rec := do(t, h, http.MethodGet, "/products?category=pottery&limit=10", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var ps []Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ps))
		require.Len(t, ps, 1)
		assert.Equal(t, "vase", ps[0].ProductID)
		assert.True(t, vase.Price.Equal(ps[0].Price))
		assert.Equal(t, int64(3), ps[0].SoldCount)
		assert.Equal(t, []string{}, ps[0].Images)
	})

	t.Run("BadLimit", func(t *testing.T) {
		_, h := newTestRouter(t)
		rec := do(t, h, http.MethodGet, "/products?limit=-1", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "limit", errorOf(t, rec).Field)
	})

	t.Run("Search", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("SearchProducts", mock.Anything, "vase", 0).Return([]domain.Product{vase}, nil)

		rec := do(t, h, http.MethodGet, "/products/search/vase", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("GetProduct", mock.Anything, "missing").
			Return(domain.Product{}, errors.Join(errors.New("op"), domain.ErrNotFound))

		rec := do(t, h, http.MethodGet, "/products/missing", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not found", errorOf(t, rec).Error)
	})

	t.Run("CreateNeedsToken", func(t *testing.T) {
		_, h := newTestRouter(t)
		rec := do(t, h, http.MethodPost, "/products", "", `{"name":"Bowl","price":10}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("CreateNeedsAdmin", func(t *testing.T) {
		_, h := newTestRouter(t)
		rec := do(t, h, http.MethodPost, "/products", "cust", `{"name":"Bowl","price":10}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("CreateByAdmin", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("CreateProduct", mock.Anything, admin, mock.MatchedBy(func(p domain.Product) bool {
			return p.Name == "Bowl" && p.Price.Equal(decimal.NewFromInt(10))
		})).Return(domain.Product{ProductID: "bowl", Name: "Bowl"}, nil)

		rec := do(t, h, http.MethodPost, "/products", "adm", `{"name":"Bowl","price":10}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("ValidationError", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("UpdateProduct", mock.Anything, admin, mock.Anything).
			Return(domain.Product{}, domain.NewValidationError("labelledPrice", "must not be less than price"))

		rec := do(t, h, http.MethodPut, "/products/vase", "adm", `{"name":"Vase","price":10,"labelledPrice":5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "labelledPrice", errorOf(t, rec).Field)
	})

	t.Run("NotJSON", func(t *testing.T) {
		_, h := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader("email=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestCartRoutes(t *testing.T) {
	cart := domain.Cart{
		UserID: "u1",
		Items: []domain.LineItem{{
			ProductID:     "vase",
			Price:         decimal.NewFromInt(100),
			LabelledPrice: decimal.NewFromInt(120),
			Qty:           2,
		}},
		Version: 4,
	}

	t.Run("GetWithTotals", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("GetCart", mock.Anything, customer).Return(cart, nil)

		rec := do(t, h, http.MethodGet, "/users/cart", "cust", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var c Cart
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
		assert.Equal(t, int64(4), c.Version)
		assert.True(t, decimal.NewFromInt(240).Equal(c.Totals.ItemTotal))
		assert.True(t, decimal.NewFromInt(200).Equal(c.Totals.FinalTotal))
		assert.Equal(t, "16.7", c.Totals.SavingsPercentage)
	})

	t.Run("ReplaceConflict", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("ReplaceCart", mock.Anything, customer,
			[]domain.CartLine{{ProductID: "vase", Qty: 3}}, int64(3)).
			Return(domain.Cart{}, domain.ErrCartVersionConflict)

		rec := do(t, h, http.MethodPut, "/users/cart", "cust",
			`{"items":[{"productId":"vase","qty":3}],"version":3}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, domain.ErrCartVersionConflict.Error(), errorOf(t, rec).Error)
	})

	t.Run("ReplaceInvalidQty", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("ReplaceCart", mock.Anything, customer, mock.Anything, int64(4)).
			Return(domain.Cart{}, domain.ErrInvalidQuantity)

		rec := do(t, h, http.MethodPut, "/users/cart", "cust",
			`{"items":[{"productId":"vase","qty":0}],"version":4}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UpsertItem", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("UpsertCartItem", mock.Anything, customer,
			domain.CartLine{ProductID: "vase", Qty: 2}, int64(4)).Return(cart, nil)

		rec := do(t, h, http.MethodPut, "/users/cart/items/vase", "cust", `{"qty":2,"version":4}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("DeleteItemNeedsVersion", func(t *testing.T) {
		_, h := newTestRouter(t)
		rec := do(t, h, http.MethodDelete, "/users/cart/items/vase", "cust", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("DeleteMissingItem", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("DeleteCartItem", mock.Anything, customer, "bowl", int64(4)).
			Return(domain.Cart{}, domain.ErrItemNotInCart)

		rec := do(t, h, http.MethodDelete, "/users/cart/items/bowl?version=4", "cust", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		_, h := newTestRouter(t)
		rec := do(t, h, http.MethodGet, "/users/cart", "stale", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOrderRoutes(t *testing.T) {
	order := domain.Order{
		ID:     "o1",
		UserID: "u1",
		Total:  decimal.NewFromInt(200),
		Status: domain.OrderPendingPayment,
	}

	t.Run("Place", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("PlaceOrder", mock.Anything, customer, domain.PlaceOrder{
			Products: []domain.CartLine{{ProductID: "vase", Qty: 2}},
			Name:     "Nimal",
			Phone:    "0712345678",
			Address:  "1 Temple Rd, Kandy",
		}).Return(order, nil)

		rec := do(t, h, http.MethodPost, "/orders", "cust",
			`{"products":[{"productId":"vase","qty":2}],"name":"Nimal","phone":"0712345678","address":"1 Temple Rd, Kandy"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var o Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
		assert.Equal(t, "pending_payment", o.Status)
	})

	t.Run("ConfirmNotSettled", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("ConfirmPayment", mock.Anything, customer, "o1").
			Return(domain.Order{}, domain.ErrPaymentNotSettled)

		rec := do(t, h, http.MethodPost, "/orders/o1/confirm-payment", "cust", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("ChangeStatusUnknown", func(t *testing.T) {
		_, h := newTestRouter(t)
		rec := do(t, h, http.MethodPut, "/api/orders/o1/status", "adm", `{"status":"lost"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ChangeStatusIllegal", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("ChangeOrderStatus", mock.Anything, admin, "o1", domain.OrderDelivered).
			Return(domain.Order{}, domain.ErrIllegalTransition)

		rec := do(t, h, http.MethodPut, "/api/orders/o1/status", "adm", `{"status":"delivered"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("ListAllFiltered", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("ListAllOrders", mock.Anything, admin, domain.OrderQuery{Status: domain.OrderPaid}).
			Return([]domain.Order{order}, nil)

		rec := do(t, h, http.MethodGet, "/api/orders?status=paid", "adm", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Unexpected", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("ListMyOrders", mock.Anything, customer).
			Return([]domain.Order(nil), errors.New("connection reset"))

		rec := do(t, h, http.MethodGet, "/orders", "cust", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", errorOf(t, rec).Error)
	})
}

func TestPaymentRoutes(t *testing.T) {
	t.Run("CreateIntent", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("CreatePaymentIntent", mock.Anything, customer, "o1").Return(domain.PaymentIntent{
			ID: "pi_1", ClientSecret: "pi_1_secret", Amount: decimal.NewFromInt(200), Currency: "lkr",
		}, nil)

		rec := do(t, h, http.MethodPost, "/payment/create-payment-intent", "cust", `{"orderId":"o1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var pi PaymentIntent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pi))
		assert.Equal(t, "pi_1", pi.IntentID)
		assert.Equal(t, "o1", pi.OrderID)
	})

	t.Run("WebhookWrongSecret", func(t *testing.T) {
		_, h := newTestRouter(t)
		rec := do(t, h, http.MethodPost, "/payment/webhook", "", `{"intentId":"pi_1","status":"succeeded"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Webhook", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("HandlePaymentWebhook", mock.Anything, "pi_1", domain.IntentSucceeded).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/payment/webhook",
			strings.NewReader(`{"intentId":"pi_1","status":"succeeded"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(WebhookSecretHeader, webhookSecret)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		m.AssertExpectations(t)
	})
}

func TestAccountRoutes(t *testing.T) {
	t.Run("RegisterTaken", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("Register", mock.Anything, domain.Registration{
			Email: "nimal@example.com", Name: "Nimal", Password: "s3cretpass",
		}).Return(domain.User{}, domain.ErrEmailTaken)

		rec := do(t, h, http.MethodPost, "/users/register", "",
			`{"email":"nimal@example.com","name":"Nimal","password":"s3cretpass"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("LoginBlocked", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("Login", mock.Anything, "nimal@example.com", "s3cretpass").
			Return(domain.Session{}, domain.ErrUserBlocked)

		rec := do(t, h, http.MethodPost, "/users/login", "",
			`{"email":"nimal@example.com","password":"s3cretpass"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Login", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("Login", mock.Anything, "nimal@example.com", "s3cretpass").Return(customer, nil)

		rec := do(t, h, http.MethodPost, "/users/login", "",
			`{"email":"nimal@example.com","password":"s3cretpass"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var res LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "cust", res.Token)
		assert.Equal(t, "customer", res.Role)
	})

	t.Run("ResetWrongOTP", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("ResetPassword", mock.Anything, mock.Anything).Return(domain.ErrInvalidOTP)

		rec := do(t, h, http.MethodPost, "/users/reset-password", "",
			`{"email":"nimal@example.com","otp":"000000","newPassword":"n3wpassword"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BlockByAdmin", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("SetBlocked", mock.Anything, admin, "u1", true).Return(nil)

		rec := do(t, h, http.MethodPut, "/users/block/u1", "adm", `{"blocked":true}`)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestReviewRoutes(t *testing.T) {
	t.Run("PublicListing", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("ProductReviews", mock.Anything, "vase").Return([]domain.Review{
			{ID: "r1", ProductID: "vase", Rating: 5, Status: domain.ReviewApproved},
		}, nil)

		rec := do(t, h, http.MethodGet, "/reviews/product/vase", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var rs []Review
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rs))
		assert.Equal(t, "approved", rs[0].Status)
	})

	t.Run("DeleteForbidden", func(t *testing.T) {
		m, h := newTestRouter(t)
		m.On("DeleteReview", mock.Anything, customer, "r9").Return(domain.ErrForbidden)

		rec := do(t, h, http.MethodDelete, "/reviews/r9", "cust", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("SetStatusAdminOnly", func(t *testing.T) {
		_, h := newTestRouter(t)
		rec := do(t, h, http.MethodPut, "/reviews/r1", "cust", `{"status":"approved"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
