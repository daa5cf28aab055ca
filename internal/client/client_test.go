package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/niksmo/artshop/internal/adapter/httphandler"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, mux *http.ServeMux) (*Client, *MemoryTokens) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	tokens := new(MemoryTokens)
	c, err := New(srv.URL+"/api", tokens, srv.Client())
	require.NoError(t, err)
	return c, tokens
}

func TestNew(t *testing.T) {
	_, err := New("localhost:8000", nil, nil)
	assert.Error(t, err)

	c, err := New("http://localhost:8000/api", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/", c.baseURL.Path)
}

func TestLoginStoresToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req httphandler.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, httphandler.ErrorResponse{
				Error: domain.ErrInvalidCredentials.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, httphandler.LoginResponse{Token: "tok", Role: "customer"})
	})
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, httphandler.User{ID: "u1", Email: "a@b.c"})
	})
	c, tokens := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.Login(ctx, "a@b.c", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	token, _ := tokens.Load()
	assert.Empty(t, token)

	res, err := c.Login(ctx, "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)

	u, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestUnauthorizedClearsToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, httphandler.ErrorResponse{
			Error: domain.ErrUnauthorized.Error(),
		})
	})
	c, tokens := newTestClient(t, mux)
	require.NoError(t, tokens.Save("stale"))

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	token, _ := tokens.Load()
	assert.Empty(t, token)
}

func TestReplaceCart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/users/cart", func(w http.ResponseWriter, r *http.Request) {
		var req httphandler.ReplaceCartRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Version != 3 {
			writeJSON(w, http.StatusConflict, httphandler.ErrorResponse{
				Error: domain.ErrCartVersionConflict.Error(),
			})
			return
		}
		items := make([]httphandler.LineItem, len(req.Items))
		for i, l := range req.Items {
			items[i] = httphandler.LineItem{ProductID: l.ProductID, Qty: l.Qty}
		}
		writeJSON(w, http.StatusOK, httphandler.Cart{Items: items, Version: 4})
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()
	lines := []domain.CartLine{{ProductID: "p1", Qty: 2}, {ProductID: "p2", Qty: 1}}

	_, err := c.ReplaceCart(ctx, lines, 2)
	require.ErrorIs(t, err, domain.ErrCartVersionConflict)

	cart, err := c.ReplaceCart(ctx, lines, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), cart.Version)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "p2", cart.Items[1].ProductID)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		body   httphandler.ErrorResponse
		target error
	}{
		{"validation", http.StatusBadRequest,
			httphandler.ErrorResponse{Error: "must not be empty", Field: "phone"}, nil},
		{"empty order", http.StatusBadRequest,
			httphandler.ErrorResponse{Error: domain.ErrEmptyOrder.Error()}, domain.ErrEmptyOrder},
		{"not found", http.StatusNotFound,
			httphandler.ErrorResponse{Error: domain.ErrNotFound.Error()}, domain.ErrNotFound},
		{"blocked", http.StatusForbidden,
			httphandler.ErrorResponse{Error: domain.ErrUserBlocked.Error()}, domain.ErrUserBlocked},
		{"not settled", http.StatusConflict,
			httphandler.ErrorResponse{Error: domain.ErrPaymentNotSettled.Error()}, domain.ErrPaymentNotSettled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.code, tt.body)
			})
			c, _ := newTestClient(t, mux)

			_, err := c.PlaceOrder(context.Background(), nil, "n", "p", "a")
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
				return
			}
			var verr domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "phone", verr.Field)
		})
	}
}

func TestFileTokens(t *testing.T) {
	ft := FileTokens{Path: filepath.Join(t.TempDir(), "nested", "token")}

	token, err := ft.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, ft.Save("abc"))
	token, err = ft.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, ft.Clear())
	require.NoError(t, ft.Clear())
	token, err = ft.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}
