package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// Cache remembers the last price written for each symbol.
type Cache interface {
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, bool, error)
	SetLastPrice(ctx context.Context, symbol string, price decimal.Decimal) error
}

// RedisCache stores prices in redis under `stock:<SYMBOL>:price`.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("stock:%s:price", symbol)
}

// ConnectRedis connects to redis, or returns nil if no address is configured.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisCache(client, cfg.TTL), nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (cache *RedisCache) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	value, err := cache.client.Get(ctx, cacheKey(symbol)).Result()

	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}

	if err != nil {
		return decimal.Zero, false, err
	}

	price, err := decimal.NewFromString(value)

	if err != nil {
		// A corrupt entry is overwritten on the next write.
		return decimal.Zero, false, nil
	}

	return price, true, nil
}

func (cache *RedisCache) SetLastPrice(ctx context.Context, symbol string, price decimal.Decimal) error {
	return cache.client.Set(ctx, cacheKey(symbol), price.String(), cache.ttl).Err()
}

func (cache *RedisCache) Close() error {
	return cache.client.Close()
}
