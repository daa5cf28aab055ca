package storefront

import (
	"context"

	"github.com/niksmo/artshop/internal/adapter/httphandler"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockCartAPI struct {
	mock.Mock
}

func (m *MockCartAPI) GetCart(ctx context.Context) (domain.Cart, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockCartAPI) ReplaceCart(
	ctx context.Context, lines []domain.CartLine, version int64,
) (domain.Cart, error) {
	args := m.Called(ctx, lines, version)
	return args.Get(0).(domain.Cart), args.Error(1)
}

type MockOrderAPI struct {
	mock.Mock
}

func (m *MockOrderAPI) PlaceOrder(
	ctx context.Context, lines []domain.CartLine, name, phone, address string,
) (httphandler.Order, error) {
	args := m.Called(ctx, lines, name, phone, address)
	return args.Get(0).(httphandler.Order), args.Error(1)
}

func (m *MockOrderAPI) CreatePaymentIntent(
	ctx context.Context, orderID string,
) (httphandler.PaymentIntent, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(httphandler.PaymentIntent), args.Error(1)
}

func (m *MockOrderAPI) ConfirmPayment(
	ctx context.Context, orderID string,
) (httphandler.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(httphandler.Order), args.Error(1)
}

type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(
	ctx context.Context, intentID, clientSecret, paymentMethod string,
) (domain.PaymentIntent, error) {
	args := m.Called(ctx, intentID, clientSecret, paymentMethod)
	return args.Get(0).(domain.PaymentIntent), args.Error(1)
}
