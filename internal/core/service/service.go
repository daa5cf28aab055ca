package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
	"golang.org/x/sync/singleflight"
)

var (
	_ port.ProductsCatalog    = (*Service)(nil)
	_ port.CartKeeper         = (*Service)(nil)
	_ port.OrdersManager      = (*Service)(nil)
	_ port.Payments           = (*Service)(nil)
	_ port.Accounts           = (*Service)(nil)
	_ port.ReviewsManager     = (*Service)(nil)
	_ port.WishlistManager    = (*Service)(nil)
	_ port.OrderEventsHandler = (*Service)(nil)
)

type Config struct {
	Currency   string
	SessionTTL time.Duration
	OTPTTL     time.Duration
}

func (c *Config) normalize() {
	if c.Currency == "" {
		c.Currency = "lkr"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.OTPTTL == 0 {
		c.OTPTTL = 10 * time.Minute
	}
}

// Deps holds the outbound adapters. CartCache, Notifier and Sales are
// optional.
type Deps struct {
	Products  port.ProductsStorage
	Carts     port.CartsStorage
	CartCache port.CartCache
	Orders    port.OrdersStorage
	Users     port.UsersStorage
	Sessions  port.SessionsStorage
	Reviews   port.ReviewsStorage
	Wishlist  port.WishlistStorage
	OTP       port.OTPStore
	Notifier  port.Notifier
	Processor port.PaymentProcessor
	Sales     port.ProductSalesReader
}

type Service struct {
	products  port.ProductsStorage
	carts     port.CartsStorage
	cartCache port.CartCache
	orders    port.OrdersStorage
	users     port.UsersStorage
	sessions  port.SessionsStorage
	reviews   port.ReviewsStorage
	wishlist  port.WishlistStorage
	otp       port.OTPStore
	notifier  port.Notifier
	processor port.PaymentProcessor
	sales     port.ProductSalesReader

	cfg Config
	now func() time.Time
	sfg singleflight.Group
}

func New(d Deps, cfg Config) *Service {
	cfg.normalize()
	return &Service{
		products:  d.Products,
		carts:     d.Carts,
		cartCache: d.CartCache,
		orders:    d.Orders,
		users:     d.Users,
		sessions:  d.Sessions,
		reviews:   d.Reviews,
		wishlist:  d.Wishlist,
		otp:       d.OTP,
		notifier:  d.Notifier,
		processor: d.Processor,
		sales:     d.Sales,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func requireAdmin(s domain.Session) error {
	if !s.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) soldCount(productID string) int64 {
	const op = "Service.soldCount"

	if s.sales == nil {
		return 0
	}
	n, err := s.sales.SoldCount(productID)
	if err != nil {
		slog.Warn("failed to read sales", "op", op, "err", err)
		return 0
	}
	return n
}

func (s *Service) cacheGet(ctx context.Context, userID string) (domain.Cart, error) {
	if s.cartCache == nil {
		return domain.Cart{}, port.ErrCacheMiss
	}
	return s.cartCache.Get(ctx, userID)
}

func (s *Service) cacheSet(ctx context.Context, c domain.Cart) {
	const op = "Service.cacheSet"

	if s.cartCache == nil {
		return
	}
	if err := s.cartCache.Set(ctx, c); err != nil {
		slog.Warn("failed to cache cart", "op", op, "err", err)
	}
}

func (s *Service) cacheDelete(ctx context.Context, userID string) {
	const op = "Service.cacheDelete"

	if s.cartCache == nil {
		return
	}
	if err := s.cartCache.Delete(ctx, userID); err != nil {
		slog.Warn("failed to invalidate cart", "op", op, "err", err)
	}
}
