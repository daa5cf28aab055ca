package service

import (
	"testing"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validPlaceOrder() domain.PlaceOrder {
	return domain.PlaceOrder{
		Products: []domain.CartLine{{ProductID: "a", Qty: 2}},
		Name:     "Nimal Perera",
		Phone:    "0771234567",
		Address:  "12 Temple Rd, Kandy, Kandy, Central",
	}
}

func TestPlaceOrder(t *testing.T) {
	t.Run("PendingWithCatalogTotal", func(t *testing.T) {
		f := newFixture()
		f.products.On("ReadProducts", mock.Anything, []string{"a"}).
			Return(map[string]domain.Product{"a": product("a", 100, 120)}, nil)

		var (
			stored domain.Order
			evt    domain.OutboxEvent
		)
		f.orders.On("StoreOrder", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(domain.Order)
				evt = args.Get(2).(domain.OutboxEvent)
			}).
			Return(domain.Order{ID: "o1", Status: domain.OrderPendingPayment}, nil)

		o, err := f.svc.PlaceOrder(t.Context(), customer, validPlaceOrder())
		require.NoError(t, err)
		assert.Equal(t, "o1", o.ID)

		assert.Equal(t, domain.OrderPendingPayment, stored.Status)
		assert.True(t, stored.Total.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, customer.Email, stored.Email)
		assert.Equal(t, customer.UserID, stored.UserID)
		assert.Equal(t, domain.EventOrderPlaced, evt.EventType)
		assert.Equal(t, stored.ID, evt.AggregateID)

		decoded, err := decodeOrderEvent(evt)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderPendingPayment, decoded.Status)
		require.Len(t, decoded.Products, 1)
		assert.Equal(t, 2, decoded.Products[0].Qty)
	})

	t.Run("Empty", func(t *testing.T) {
		f := newFixture()
		p := validPlaceOrder()
		p.Products = nil
		_, err := f.svc.PlaceOrder(t.Context(), customer, p)
		assert.ErrorIs(t, err, domain.ErrEmptyOrder)
	})

	t.Run("InvalidFields", func(t *testing.T) {
		tests := map[string]func(*domain.PlaceOrder){
			"name":    func(p *domain.PlaceOrder) { p.Name = "  " },
			"phone":   func(p *domain.PlaceOrder) { p.Phone = "0812345678" },
			"address": func(p *domain.PlaceOrder) { p.Address = "" },
		}
		for field, mutate := range tests {
			t.Run(field, func(t *testing.T) {
				f := newFixture()
				p := validPlaceOrder()
				mutate(&p)
				_, err := f.svc.PlaceOrder(t.Context(), customer, p)
				var verr domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, field, verr.Field)
			})
		}
	})
}

func TestChangeOrderStatus(t *testing.T) {
	t.Run("CustomerForbidden", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ChangeOrderStatus(t.Context(), customer, "o1", domain.OrderShipped)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("IllegalTransition", func(t *testing.T) {
		f := newFixture()
		f.orders.On("ReadOrder", mock.Anything, "o1").
			Return(domain.Order{ID: "o1", Status: domain.OrderDelivered}, nil)

		_, err := f.svc.ChangeOrderStatus(t.Context(), adminSess, "o1", domain.OrderShipped)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
		f.orders.AssertNotCalled(t, "UpdateOrderStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Ship", func(t *testing.T) {
		f := newFixture()
		f.orders.On("ReadOrder", mock.Anything, "o1").
			Return(domain.Order{ID: "o1", Status: domain.OrderProcessing}, nil)
		f.orders.On("UpdateOrderStatus", mock.Anything, "o1",
			domain.OrderProcessing, domain.OrderShipped, mock.Anything).
			Return(domain.Order{ID: "o1", Status: domain.OrderShipped}, nil)

		o, err := f.svc.ChangeOrderStatus(t.Context(), adminSess, "o1", domain.OrderShipped)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderShipped, o.Status)
	})
}

func TestConfirmPayment(t *testing.T) {
	pending := domain.Order{
		ID:              "o1",
		UserID:          "u1",
		Status:          domain.OrderPendingPayment,
		PaymentIntentID: "pi_1",
		Products:        []domain.OrderLine{{ProductID: "a", Qty: 1}},
	}

	t.Run("SucceededDropsPurchased", func(t *testing.T) {
		f := newFixture()
		f.orders.On("ReadOrder", mock.Anything, "o1").Return(pending, nil)
		f.processor.On("ReadIntent", mock.Anything, "pi_1").
			Return(domain.PaymentIntent{ID: "pi_1", Status: domain.IntentSucceeded}, nil)

		paid := pending
		paid.Status = domain.OrderPaid
		f.orders.On("UpdateOrderStatus", mock.Anything, "o1",
			domain.OrderPendingPayment, domain.OrderPaid, mock.Anything).
			Return(paid, nil)

		cart := domain.Cart{
			UserID: "u1",
			Items: []domain.LineItem{
				product("a", 10, 10).Snapshot(1),
				product("b", 10, 10).Snapshot(1),
			},
			Version: 2,
		}
		f.carts.On("ReadCart", mock.Anything, "u1").Return(cart, nil)
		f.products.On("ReadProducts", mock.Anything, []string{"b"}).
			Return(map[string]domain.Product{"b": product("b", 10, 10)}, nil)
		f.carts.On("WriteCart", mock.Anything, mock.Anything, int64(2)).
			Return(domain.Cart{UserID: "u1", Version: 3}, nil)
		f.cache.On("Set", mock.Anything, domain.Cart{UserID: "u1", Version: 3}).Return(nil)

		o, err := f.svc.ConfirmPayment(t.Context(), customer, "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderPaid, o.Status)
		f.carts.AssertExpectations(t)
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		f := newFixture()
		paid := pending
		paid.Status = domain.OrderPaid
		f.orders.On("ReadOrder", mock.Anything, "o1").Return(paid, nil)

		o, err := f.svc.ConfirmPayment(t.Context(), customer, "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderPaid, o.Status)
		f.processor.AssertNotCalled(t, "ReadIntent", mock.Anything, mock.Anything)
	})

	t.Run("StillProcessing", func(t *testing.T) {
		f := newFixture()
		f.orders.On("ReadOrder", mock.Anything, "o1").Return(pending, nil)
		f.processor.On("ReadIntent", mock.Anything, "pi_1").
			Return(domain.PaymentIntent{ID: "pi_1", Status: domain.IntentProcessing}, nil)

		_, err := f.svc.ConfirmPayment(t.Context(), customer, "o1")
		assert.ErrorIs(t, err, domain.ErrPaymentNotSettled)
	})

	t.Run("ForeignOrder", func(t *testing.T) {
		f := newFixture()
		foreign := pending
		foreign.UserID = "u2"
		f.orders.On("ReadOrder", mock.Anything, "o1").Return(foreign, nil)

		_, err := f.svc.ConfirmPayment(t.Context(), customer, "o1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("NoIntent", func(t *testing.T) {
		f := newFixture()
		noIntent := pending
		noIntent.PaymentIntentID = ""
		f.orders.On("ReadOrder", mock.Anything, "o1").Return(noIntent, nil)

		_, err := f.svc.ConfirmPayment(t.Context(), customer, "o1")
		assert.ErrorIs(t, err, domain.ErrPaymentMissing)
	})
}
