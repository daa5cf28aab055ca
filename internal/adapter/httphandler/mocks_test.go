package httphandler

import (
	"context"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockShop implements every inbound port.
type MockShop struct{ mock.Mock }

func (m *MockShop) ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockShop) SearchProducts(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, q, limit)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockShop) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockShop) CreateProduct(ctx context.Context, s domain.Session, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, s, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockShop) UpdateProduct(ctx context.Context, s domain.Session, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, s, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockShop) DeleteProduct(ctx context.Context, s domain.Session, id string) error {
	return m.Called(ctx, s, id).Error(0)
}

func (m *MockShop) GetCart(ctx context.Context, s domain.Session) (domain.Cart, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockShop) ReplaceCart(
	ctx context.Context, s domain.Session, lines []domain.CartLine, version int64,
) (domain.Cart, error) {
	args := m.Called(ctx, s, lines, version)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockShop) UpsertCartItem(
	ctx context.Context, s domain.Session, line domain.CartLine, version int64,
) (domain.Cart, error) {
	args := m.Called(ctx, s, line, version)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockShop) DeleteCartItem(
	ctx context.Context, s domain.Session, productID string, version int64,
) (domain.Cart, error) {
	args := m.Called(ctx, s, productID, version)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockShop) PlaceOrder(ctx context.Context, s domain.Session, po domain.PlaceOrder) (domain.Order, error) {
	args := m.Called(ctx, s, po)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockShop) ListMyOrders(ctx context.Context, s domain.Session) ([]domain.Order, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockShop) ListAllOrders(ctx context.Context, s domain.Session, q domain.OrderQuery) ([]domain.Order, error) {
	args := m.Called(ctx, s, q)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockShop) ChangeOrderStatus(
	ctx context.Context, s domain.Session, id string, st domain.OrderStatus,
) (domain.Order, error) {
	args := m.Called(ctx, s, id, st)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockShop) ConfirmPayment(ctx context.Context, s domain.Session, id string) (domain.Order, error) {
	args := m.Called(ctx, s, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockShop) CreatePaymentIntent(
	ctx context.Context, s domain.Session, orderID string,
) (domain.PaymentIntent, error) {
	args := m.Called(ctx, s, orderID)
	return args.Get(0).(domain.PaymentIntent), args.Error(1)
}

func (m *MockShop) HandlePaymentWebhook(ctx context.Context, id string, st domain.IntentStatus) error {
	return m.Called(ctx, id, st).Error(0)
}

func (m *MockShop) Register(ctx context.Context, r domain.Registration) (domain.User, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockShop) Login(ctx context.Context, email, password string) (domain.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockShop) Logout(ctx context.Context, s domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShop) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockShop) Me(ctx context.Context, s domain.Session) (domain.User, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockShop) ListUsers(ctx context.Context, s domain.Session) ([]domain.User, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockShop) SetBlocked(ctx context.Context, s domain.Session, id string, blocked bool) error {
	return m.Called(ctx, s, id, blocked).Error(0)
}

func (m *MockShop) SendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockShop) ResetPassword(ctx context.Context, r domain.PasswordReset) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockShop) SubmitReview(ctx context.Context, s domain.Session, r domain.Review) (domain.Review, error) {
	args := m.Called(ctx, s, r)
	return args.Get(0).(domain.Review), args.Error(1)
}

func (m *MockShop) ProductReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *MockShop) MyReviews(ctx context.Context, s domain.Session) ([]domain.Review, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *MockShop) AllReviews(ctx context.Context, s domain.Session) ([]domain.Review, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *MockShop) SetReviewStatus(
	ctx context.Context, s domain.Session, id string, st domain.ReviewStatus,
) (domain.Review, error) {
	args := m.Called(ctx, s, id, st)
	return args.Get(0).(domain.Review), args.Error(1)
}

func (m *MockShop) DeleteReview(ctx context.Context, s domain.Session, id string) error {
	return m.Called(ctx, s, id).Error(0)
}

func (m *MockShop) Wishlist(ctx context.Context, s domain.Session) ([]domain.WishlistEntry, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.WishlistEntry), args.Error(1)
}

func (m *MockShop) AddToWishlist(ctx context.Context, s domain.Session, productID string) error {
	return m.Called(ctx, s, productID).Error(0)
}

func (m *MockShop) RemoveFromWishlist(ctx context.Context, s domain.Session, productID string) error {
	return m.Called(ctx, s, productID).Error(0)
}
