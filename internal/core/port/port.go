package port

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/shopspring/decimal"
)

var ErrCacheMiss = errors.New("cache miss")

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Inbound ports.

type ProductsCatalog interface {
	ListProducts(context.Context, domain.ProductQuery) ([]domain.Product, error)
	SearchProducts(ctx context.Context, q string, limit int) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	CreateProduct(context.Context, domain.Session, domain.Product) (domain.Product, error)
	UpdateProduct(context.Context, domain.Session, domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, s domain.Session, productID string) error
}

type CartKeeper interface {
	GetCart(context.Context, domain.Session) (domain.Cart, error)
	ReplaceCart(
		ctx context.Context, s domain.Session,
		lines []domain.CartLine, version int64,
	) (domain.Cart, error)
	UpsertCartItem(
		ctx context.Context, s domain.Session,
		line domain.CartLine, version int64,
	) (domain.Cart, error)
	DeleteCartItem(
		ctx context.Context, s domain.Session,
		productID string, version int64,
	) (domain.Cart, error)
}

type OrdersManager interface {
	PlaceOrder(context.Context, domain.Session, domain.PlaceOrder) (domain.Order, error)
	ListMyOrders(context.Context, domain.Session) ([]domain.Order, error)
	ListAllOrders(context.Context, domain.Session, domain.OrderQuery) ([]domain.Order, error)
	ChangeOrderStatus(
		ctx context.Context, s domain.Session,
		orderID string, status domain.OrderStatus,
	) (domain.Order, error)
	ConfirmPayment(ctx context.Context, s domain.Session, orderID string) (domain.Order, error)
}

type Payments interface {
	CreatePaymentIntent(
		ctx context.Context, s domain.Session, orderID string,
	) (domain.PaymentIntent, error)
	HandlePaymentWebhook(
		ctx context.Context, intentID string, status domain.IntentStatus,
	) error
}

type Accounts interface {
	Register(context.Context, domain.Registration) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Logout(context.Context, domain.Session) error
	Authenticate(ctx context.Context, token string) (domain.Session, error)
	Me(context.Context, domain.Session) (domain.User, error)
	ListUsers(context.Context, domain.Session) ([]domain.User, error)
	SetBlocked(ctx context.Context, s domain.Session, userID string, blocked bool) error
	SendOTP(ctx context.Context, email string) error
	ResetPassword(context.Context, domain.PasswordReset) error
}

type ReviewsManager interface {
	SubmitReview(context.Context, domain.Session, domain.Review) (domain.Review, error)
	ProductReviews(ctx context.Context, productID string) ([]domain.Review, error)
	MyReviews(context.Context, domain.Session) ([]domain.Review, error)
	AllReviews(context.Context, domain.Session) ([]domain.Review, error)
	SetReviewStatus(
		ctx context.Context, s domain.Session,
		reviewID string, status domain.ReviewStatus,
	) (domain.Review, error)
	DeleteReview(ctx context.Context, s domain.Session, reviewID string) error
}

type WishlistManager interface {
	Wishlist(context.Context, domain.Session) ([]domain.WishlistEntry, error)
	AddToWishlist(ctx context.Context, s domain.Session, productID string) error
	RemoveFromWishlist(ctx context.Context, s domain.Session, productID string) error
}

// OrderEventsHandler reacts to order events read back from the broker.
type OrderEventsHandler interface {
	HandleOrderEvents(context.Context, []domain.OrderEvent) error
}

// Outbound ports.

type ProductsStorage interface {
	StoreProduct(context.Context, domain.Product) (domain.Product, error)
	UpdateProduct(context.Context, domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	ReadProduct(ctx context.Context, productID string) (domain.Product, error)
	ReadProducts(ctx context.Context, productIDs []string) (map[string]domain.Product, error)
	ListProducts(context.Context, domain.ProductQuery) ([]domain.Product, error)
	SearchProducts(ctx context.Context, q string, limit int) ([]domain.Product, error)
}

type CartsStorage interface {
	ReadCart(ctx context.Context, userID string) (domain.Cart, error)
	// WriteCart replaces the stored cart if its version still equals
	// expected and returns the cart with the bumped version.
	WriteCart(ctx context.Context, c domain.Cart, expected int64) (domain.Cart, error)
}

type CartCache interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Set(ctx context.Context, c domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

type OrdersStorage interface {
	StoreOrder(context.Context, domain.Order, domain.OutboxEvent) (domain.Order, error)
	ReadOrder(ctx context.Context, orderID string) (domain.Order, error)
	ReadOrderByIntent(ctx context.Context, intentID string) (domain.Order, error)
	ListOrders(context.Context, domain.OrderQuery) ([]domain.Order, error)
	// UpdateOrderStatus moves an order from one status to another and
	// records evt in the same transaction. It fails with
	// [domain.ErrIllegalTransition] when the stored status is not from.
	UpdateOrderStatus(
		ctx context.Context, orderID string,
		from, to domain.OrderStatus, evt domain.OutboxEvent,
	) (domain.Order, error)
	SetPaymentIntent(ctx context.Context, orderID, intentID string) error
	ListAwaitingPayment(context.Context, domain.AwaitingPaymentQuery) ([]domain.Order, error)
}

type UsersStorage interface {
	StoreUser(context.Context, domain.User) (domain.User, error)
	ReadUser(ctx context.Context, userID string) (domain.User, error)
	ReadUserByEmail(ctx context.Context, email string) (domain.User, error)
	ListUsers(context.Context) ([]domain.User, error)
	SetBlocked(ctx context.Context, userID string, blocked bool) error
	UpdatePassword(ctx context.Context, userID, hash string) error
}

type SessionsStorage interface {
	StoreSession(context.Context, domain.Session) error
	ReadSession(ctx context.Context, token string) (domain.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

type ReviewsStorage interface {
	UpsertReview(context.Context, domain.Review) (domain.Review, error)
	ReadReview(ctx context.Context, reviewID string) (domain.Review, error)
	ListProductReviews(
		ctx context.Context, productID string, status domain.ReviewStatus,
	) ([]domain.Review, error)
	ListUserReviews(ctx context.Context, userID string) ([]domain.Review, error)
	ListReviews(context.Context) ([]domain.Review, error)
	UpdateReviewStatus(
		ctx context.Context, reviewID string, status domain.ReviewStatus,
	) (domain.Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
}

type WishlistStorage interface {
	AddWishlistEntry(context.Context, domain.WishlistEntry) error
	DeleteWishlistEntry(ctx context.Context, userID, productID string) error
	ListWishlist(ctx context.Context, userID string) ([]domain.WishlistEntry, error)
}

type OutboxStorage interface {
	ReadUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, eventIDs []string) error
}

type OTPStore interface {
	SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error
	// ConsumeOTP deletes the code and reports whether it matched.
	ConsumeOTP(ctx context.Context, email, code string) (bool, error)
}

type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
	SendOrderStatus(ctx context.Context, email string, e domain.OrderEvent) error
}

type PaymentProcessor interface {
	CreateIntent(
		ctx context.Context, orderID string,
		amount decimal.Decimal, currency string,
	) (domain.PaymentIntent, error)
	ReadIntent(ctx context.Context, intentID string) (domain.PaymentIntent, error)
	CancelIntent(ctx context.Context, intentID string) error
}

type OrderEventsProducer interface {
	ProduceOrderEvents(context.Context, []domain.OrderEvent) error
}

type ProductSalesReader interface {
	SoldCount(productID string) (int64, error)
}

type ProductSalesProcessor interface {
	runnerContextWg
	closer
}
