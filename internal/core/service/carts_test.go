package service

import (
	"testing"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetCart(t *testing.T) {
	t.Run("CacheHit", func(t *testing.T) {
		f := newFixture()
		cached := domain.Cart{UserID: "u1", Version: 7}
		f.cache.On("Get", mock.Anything, "u1").Return(cached, nil)

		c, err := f.svc.GetCart(t.Context(), customer)
		require.NoError(t, err)
		assert.Equal(t, cached, c)
		f.carts.AssertNotCalled(t, "ReadCart", mock.Anything, mock.Anything)
	})

	t.Run("CacheMissNoStoredCart", func(t *testing.T) {
		f := newFixture()
		f.cache.On("Get", mock.Anything, "u1").Return(domain.Cart{}, port.ErrCacheMiss)
		f.carts.On("ReadCart", mock.Anything, "u1").Return(domain.Cart{}, domain.ErrNotFound)
		f.cache.On("Set", mock.Anything, domain.NewCart("u1")).Return(nil)

		c, err := f.svc.GetCart(t.Context(), customer)
		require.NoError(t, err)
		assert.Equal(t, int64(0), c.Version)
		assert.Empty(t, c.Items)
		f.cache.AssertExpectations(t)
	})
}

func TestReplaceCart(t *testing.T) {
	t.Run("SnapshotsCatalog", func(t *testing.T) {
		f := newFixture()
		f.products.On("ReadProducts", mock.Anything, []string{"a"}).
			Return(map[string]domain.Product{"a": product("a", 100, 120)}, nil)

		var written domain.Cart
		f.carts.On("WriteCart", mock.Anything, mock.Anything, int64(3)).
			Run(func(args mock.Arguments) { written = args.Get(1).(domain.Cart) }).
			Return(domain.Cart{UserID: "u1", Version: 4}, nil)
		f.cache.On("Set", mock.Anything, domain.Cart{UserID: "u1", Version: 4}).Return(nil)

		c, err := f.svc.ReplaceCart(t.Context(), customer,
			[]domain.CartLine{{ProductID: "a", Qty: 2}}, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(4), c.Version)

		require.Len(t, written.Items, 1)
		assert.Equal(t, "Product a", written.Items[0].Name)
		assert.Equal(t, 2, written.Items[0].Qty)
		assert.Equal(t, testNow, written.UpdatedAt)
		f.cache.AssertExpectations(t)
		f.cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("ZeroQuantity", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ReplaceCart(t.Context(), customer,
			[]domain.CartLine{{ProductID: "a", Qty: 0}}, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		f.carts.AssertNotCalled(t, "WriteCart", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		f := newFixture()
		f.products.On("ReadProducts", mock.Anything, []string{"x"}).
			Return(map[string]domain.Product{}, nil)

		_, err := f.svc.ReplaceCart(t.Context(), customer,
			[]domain.CartLine{{ProductID: "x", Qty: 1}}, 0)
		var verr domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("VersionConflict", func(t *testing.T) {
		f := newFixture()
		f.carts.On("WriteCart", mock.Anything, mock.Anything, int64(1)).
			Return(domain.Cart{}, domain.ErrCartVersionConflict)
		f.cache.On("Delete", mock.Anything, "u1").Return(nil)

		_, err := f.svc.ReplaceCart(t.Context(), customer, nil, 1)
		assert.ErrorIs(t, err, domain.ErrCartVersionConflict)
		f.cache.AssertExpectations(t)
		f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
	})
}

func TestCartItems(t *testing.T) {
	stored := domain.Cart{
		UserID: "u1",
		Items: []domain.LineItem{
			product("a", 100, 100).Snapshot(1),
			product("b", 50, 60).Snapshot(2),
		},
		Version: 5,
	}

	t.Run("UpsertStaleVersion", func(t *testing.T) {
		f := newFixture()
		f.carts.On("ReadCart", mock.Anything, "u1").Return(stored, nil)

		_, err := f.svc.UpsertCartItem(t.Context(), customer,
			domain.CartLine{ProductID: "a", Qty: 3}, 4)
		assert.ErrorIs(t, err, domain.ErrCartVersionConflict)
	})

	t.Run("UpsertChangesQuantity", func(t *testing.T) {
		f := newFixture()
		f.carts.On("ReadCart", mock.Anything, "u1").Return(stored, nil)
		f.products.On("ReadProducts", mock.Anything, []string{"a", "b"}).
			Return(map[string]domain.Product{
				"a": product("a", 100, 100),
				"b": product("b", 50, 60),
			}, nil)

		var written domain.Cart
		f.carts.On("WriteCart", mock.Anything, mock.Anything, int64(5)).
			Run(func(args mock.Arguments) { written = args.Get(1).(domain.Cart) }).
			Return(domain.Cart{UserID: "u1", Version: 6}, nil)
		f.cache.On("Set", mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.UpsertCartItem(t.Context(), customer,
			domain.CartLine{ProductID: "a", Qty: 3}, 5)
		require.NoError(t, err)
		require.Len(t, written.Items, 2)
		assert.Equal(t, 3, written.Items[0].Qty)
		assert.Equal(t, 2, written.Items[1].Qty)
	})

	t.Run("UpsertZeroQuantity", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.UpsertCartItem(t.Context(), customer,
			domain.CartLine{ProductID: "a", Qty: 0}, 5)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("DeleteMissingItem", func(t *testing.T) {
		f := newFixture()
		f.carts.On("ReadCart", mock.Anything, "u1").Return(stored, nil)

		_, err := f.svc.DeleteCartItem(t.Context(), customer, "zzz", 5)
		assert.ErrorIs(t, err, domain.ErrItemNotInCart)
	})
}
