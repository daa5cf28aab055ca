package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/niksmo/artshop/internal/core/port"
)

// Services are the inbound ports the REST API is served from.
type Services struct {
	Catalog  port.ProductsCatalog
	Carts    port.CartKeeper
	Orders   port.OrdersManager
	Payments port.Payments
	Accounts port.Accounts
	Reviews  port.ReviewsManager
	Wishlist port.WishlistManager
}

type Handler struct {
	svc Services
}

// NewRouter registers every route of the storefront API. Extra routes,
// like the mock payment processor, are mounted by the caller.
func NewRouter(svc Services, webhookSecret string) chi.Router {
	h := Handler{svc}
	auth := RequireSession(svc.Accounts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging)
	r.Use(middleware.Recoverer)
	r.Use(AllowJSON)

	r.Get("/health", h.Health)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/search/{q}", h.SearchProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(auth, RequireAdmin)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/send-otp", h.SendOTP)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)

			r.Get("/cart", h.GetCart)
			r.Put("/cart", h.ReplaceCart)
			r.Put("/cart/items/{productId}", h.UpsertCartItem)
			r.Delete("/cart/items/{productId}", h.DeleteCartItem)

			r.Get("/wishlist", h.Wishlist)
			r.Put("/wishlist/{productId}", h.AddToWishlist)
			r.Delete("/wishlist/{productId}", h.RemoveFromWishlist)

			r.Get("/reviews", h.MyReviews)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth, RequireAdmin)
			r.Get("/all", h.ListUsers)
			r.Put("/block/{id}", h.SetBlocked)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListMyOrders)
		r.Post("/{id}/confirm-payment", h.ConfirmPayment)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(auth, RequireAdmin)
		r.Get("/", h.ListAllOrders)
		r.Put("/{id}/status", h.ChangeOrderStatus)
	})

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/product/{productId}", h.ProductReviews)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/", h.SubmitReview)
			r.Delete("/{id}", h.DeleteReview)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth, RequireAdmin)
			r.Get("/", h.AllReviews)
			r.Put("/{id}", h.SetReviewStatus)
		})
	})

	r.Route("/payment", func(r chi.Router) {
		r.With(auth).Post("/create-payment-intent", h.CreatePaymentIntent)
		r.With(RequireWebhookSecret(webhookSecret)).Post("/webhook", h.PaymentWebhook)
	})

	return r
}

func (h Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
