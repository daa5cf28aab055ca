// Package cache holds the Redis backed adapters.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var (
	_ port.CartCache = (*CartCache)(nil)
	_ port.OTPStore  = (*OTPStore)(nil)
)

const defaultCartTTL = 15 * time.Minute

func NewClient(ctx context.Context, addr string, db int) (*redis.Client, error) {
	const op = "cache.NewClient"

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	slog.Info("redis is available", "op", op)
	return client, nil
}

type (
	cachedItem struct {
		ProductID     string          `json:"productId"`
		Name          string          `json:"name"`
		Image         string          `json:"image"`
		Price         decimal.Decimal `json:"price"`
		LabelledPrice decimal.Decimal `json:"labelledPrice"`
		Qty           int             `json:"qty"`
	}

	cachedCart struct {
		UserID    string       `json:"userId"`
		Items     []cachedItem `json:"items"`
		Version   int64        `json:"version"`
		UpdatedAt time.Time    `json:"updatedAt"`
	}
)

// A CartCache keeps carts under cart:<userID> with a jittered TTL so
// entries written together do not expire together. Set keeps the newest
// version.
type CartCache struct {
	client  redis.Cmdable
	baseTTL time.Duration
}

func NewCartCache(client redis.Cmdable, ttl time.Duration) CartCache {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return CartCache{client: client, baseTTL: ttl}
}

func (c CartCache) Get(ctx context.Context, userID string) (domain.Cart, error) {
	const op = "CartCache.Get"

	data, err := c.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, port.ErrCacheMiss
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	var v cachedCart
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	cart := domain.Cart{
		UserID:    v.UserID,
		Items:     make([]domain.LineItem, len(v.Items)),
		Version:   v.Version,
		UpdatedAt: v.UpdatedAt,
	}
	for i, it := range v.Items {
		cart.Items[i] = domain.LineItem(it)
	}
	return cart, nil
}

func (c CartCache) Set(ctx context.Context, cart domain.Cart) error {
	const op = "CartCache.Set"

	v := cachedCart{
		UserID:    cart.UserID,
		Items:     make([]cachedItem, len(cart.Items)),
		Version:   cart.Version,
		UpdatedAt: cart.UpdatedAt,
	}
	for i, it := range cart.Items {
		v.Items[i] = cachedItem(it)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = setCartScript.Run(ctx, c.client, []string{cartKey(cart.UserID)},
		data, cart.Version, c.ttl().Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// setCartScript never replaces a cached cart with an older version, so a
// slow read-through fill cannot undo a newer write.
var setCartScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
	local ok, v = pcall(cjson.decode, cur)
	if ok and type(v) == "table" and tonumber(v["version"]) and
		tonumber(v["version"]) > tonumber(ARGV[2]) then
		return 0
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

func (c CartCache) Delete(ctx context.Context, userID string) error {
	const op = "CartCache.Delete"

	if err := c.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c CartCache) ttl() time.Duration {
	jitter := time.Duration(rand.Int64N(int64(c.baseTTL/3) + 1))
	return c.baseTTL + jitter
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// consumeScript deletes the code only when it matches, so a wrong guess
// leaves the stored code in place.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

type OTPStore struct {
	client redis.Cmdable
}

func NewOTPStore(client redis.Cmdable) OTPStore {
	return OTPStore{client}
}

func (s OTPStore) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	const op = "OTPStore.SaveOTP"

	if err := s.client.Set(ctx, otpKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s OTPStore) ConsumeOTP(ctx context.Context, email, code string) (bool, error) {
	const op = "OTPStore.ConsumeOTP"

	if code == "" {
		return false, nil
	}

	n, err := consumeScript.Run(ctx, s.client, []string{otpKey(email)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

func otpKey(email string) string {
	return "otp:" + email
}
