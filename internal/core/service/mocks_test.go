package service

import (
	"context"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockProducts struct{ mock.Mock }

func (m *MockProducts) StoreProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProducts) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProducts) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProducts) ReadProduct(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProducts) ReadProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[string]domain.Product), args.Error(1)
}

func (m *MockProducts) ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProducts) SearchProducts(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, q, limit)
	return args.Get(0).([]domain.Product), args.Error(1)
}

type MockCarts struct{ mock.Mock }

func (m *MockCarts) ReadCart(ctx context.Context, userID string) (domain.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockCarts) WriteCart(ctx context.Context, c domain.Cart, expected int64) (domain.Cart, error) {
	args := m.Called(ctx, c, expected)
	return args.Get(0).(domain.Cart), args.Error(1)
}

type MockCartCache struct{ mock.Mock }

func (m *MockCartCache) Get(ctx context.Context, userID string) (domain.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockCartCache) Set(ctx context.Context, c domain.Cart) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCartCache) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockOrders struct{ mock.Mock }

func (m *MockOrders) StoreOrder(ctx context.Context, o domain.Order, e domain.OutboxEvent) (domain.Order, error) {
	args := m.Called(ctx, o, e)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrders) ReadOrder(ctx context.Context, id string) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrders) ReadOrderByIntent(ctx context.Context, id string) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrders) ListOrders(ctx context.Context, q domain.OrderQuery) ([]domain.Order, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrders) UpdateOrderStatus(
	ctx context.Context, id string, from, to domain.OrderStatus, e domain.OutboxEvent,
) (domain.Order, error) {
	args := m.Called(ctx, id, from, to, e)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrders) SetPaymentIntent(ctx context.Context, orderID, intentID string) error {
	return m.Called(ctx, orderID, intentID).Error(0)
}

func (m *MockOrders) ListAwaitingPayment(ctx context.Context, q domain.AwaitingPaymentQuery) ([]domain.Order, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Order), args.Error(1)
}

type MockUsers struct{ mock.Mock }

func (m *MockUsers) StoreUser(ctx context.Context, u domain.User) (domain.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUsers) ReadUser(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUsers) ReadUserByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUsers) ListUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUsers) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return m.Called(ctx, id, blocked).Error(0)
}

func (m *MockUsers) UpdatePassword(ctx context.Context, id, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

type MockSessions struct{ mock.Mock }

func (m *MockSessions) StoreSession(ctx context.Context, s domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSessions) ReadSession(ctx context.Context, token string) (domain.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockSessions) DeleteSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockSessions) DeleteUserSessions(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockReviews struct{ mock.Mock }

func (m *MockReviews) UpsertReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(domain.Review), args.Error(1)
}

func (m *MockReviews) ReadReview(ctx context.Context, id string) (domain.Review, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Review), args.Error(1)
}

func (m *MockReviews) ListProductReviews(
	ctx context.Context, productID string, st domain.ReviewStatus,
) ([]domain.Review, error) {
	args := m.Called(ctx, productID, st)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *MockReviews) ListUserReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *MockReviews) ListReviews(ctx context.Context) ([]domain.Review, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *MockReviews) UpdateReviewStatus(
	ctx context.Context, id string, st domain.ReviewStatus,
) (domain.Review, error) {
	args := m.Called(ctx, id, st)
	return args.Get(0).(domain.Review), args.Error(1)
}

func (m *MockReviews) DeleteReview(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockOutbox struct{ mock.Mock }

func (m *MockOutbox) ReadUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.OutboxEvent), args.Error(1)
}

func (m *MockOutbox) MarkPublished(ctx context.Context, ids []string) error {
	return m.Called(ctx, ids).Error(0)
}

type MockOTP struct{ mock.Mock }

func (m *MockOTP) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return m.Called(ctx, email, code, ttl).Error(0)
}

func (m *MockOTP) ConsumeOTP(ctx context.Context, email, code string) (bool, error) {
	args := m.Called(ctx, email, code)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) SendOTP(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func (m *MockNotifier) SendOrderStatus(
	ctx context.Context, email string, e domain.OrderEvent,
) error {
	return m.Called(ctx, email, e).Error(0)
}

type MockProcessor struct{ mock.Mock }

func (m *MockProcessor) CreateIntent(
	ctx context.Context, orderID string, amount decimal.Decimal, currency string,
) (domain.PaymentIntent, error) {
	args := m.Called(ctx, orderID, amount, currency)
	return args.Get(0).(domain.PaymentIntent), args.Error(1)
}

func (m *MockProcessor) ReadIntent(ctx context.Context, id string) (domain.PaymentIntent, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.PaymentIntent), args.Error(1)
}

func (m *MockProcessor) CancelIntent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockProducer struct{ mock.Mock }

func (m *MockProducer) ProduceOrderEvents(ctx context.Context, es []domain.OrderEvent) error {
	return m.Called(ctx, es).Error(0)
}

type stubSales map[string]int64

func (s stubSales) SoldCount(productID string) (int64, error) {
	return s[productID], nil
}

var (
	testNow   = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	customer  = domain.Session{Token: "tok", UserID: "u1", Email: "u1@example.com", Role: domain.RoleCustomer}
	adminSess = domain.Session{Token: "adm", UserID: "a1", Email: "a1@example.com", Role: domain.RoleAdmin}
)

type fixture struct {
	products  *MockProducts
	carts     *MockCarts
	cache     *MockCartCache
	orders    *MockOrders
	users     *MockUsers
	sessions  *MockSessions
	reviews   *MockReviews
	otp       *MockOTP
	notifier  *MockNotifier
	processor *MockProcessor
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		products:  new(MockProducts),
		carts:     new(MockCarts),
		cache:     new(MockCartCache),
		orders:    new(MockOrders),
		users:     new(MockUsers),
		sessions:  new(MockSessions),
		reviews:   new(MockReviews),
		otp:       new(MockOTP),
		notifier:  new(MockNotifier),
		processor: new(MockProcessor),
	}
	f.svc = New(Deps{
		Products:  f.products,
		Carts:     f.carts,
		CartCache: f.cache,
		Orders:    f.orders,
		Users:     f.users,
		Sessions:  f.sessions,
		Reviews:   f.reviews,
		OTP:       f.otp,
		Notifier:  f.notifier,
		Processor: f.processor,
	}, Config{}).WithClock(func() time.Time { return testNow })
	return f
}

func product(id string, price, labelled int64) domain.Product {
	return domain.Product{
		ProductID:     id,
		Name:          "Product " + id,
		DisplayImage:  id + ".png",
		Price:         decimal.NewFromInt(price),
		LabelledPrice: decimal.NewFromInt(labelled),
	}
}
