package exposure

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/perilpool/sdk/asset"
)

// CacheOptions configures the Redis connection behind a Cache.
type CacheOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// TTL is how long cached valuations stay valid. Default: 15 minutes.
	TTL time.Duration

	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration

	// Logger receives cache diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Cache is a Redis-backed read-through decorator for a FinancialDataProvider.
//
// Valuation lookups often reach out to slow pricing services; repeated
// aggregation runs over the same portfolio re-resolve identical exposures.
// Cache serves those from Redis and falls back to the wrapped provider on a
// miss. Provider errors are never cached, and cache failures degrade to a
// direct provider call rather than failing the run.
type Cache struct {
	inner  FinancialDataProvider
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache connects to Redis and wraps the given provider.
func NewCache(inner FinancialDataProvider, opts CacheOptions) (*Cache, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.TTL == 0 {
		opts.TTL = 15 * time.Minute
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		inner:  inner,
		client: client,
		ttl:    opts.TTL,
		logger: opts.Logger,
	}, nil
}

// GetAssetValue returns the cached value for (asset, currency) or resolves it
// through the wrapped provider and stores the result.
func (c *Cache) GetAssetValue(ctx context.Context, a asset.Asset, currency string) (float64, error) {
	key := fmt.Sprintf("exposure:value:%s:%s", a.ID(), currency)

	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}

	v, err := c.inner.GetAssetValue(ctx, a, currency)
	if err != nil {
		return 0, err
	}
	c.store(ctx, key, v)
	return v, nil
}

// GetAssetAggregateCashflows returns the cached aggregate cashflow for
// (asset, period, currency) or resolves it through the wrapped provider and
// stores the result.
func (c *Cache) GetAssetAggregateCashflows(ctx context.Context, a asset.Asset, start, end time.Time, currency string) (float64, error) {
	key := fmt.Sprintf("exposure:cashflow:%s:%s:%d:%d", a.ID(), currency, start.Unix(), end.Unix())

	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}

	v, err := c.inner.GetAssetAggregateCashflows(ctx, a, start, end, currency)
	if err != nil {
		return 0, err
	}
	c.store(ctx, key, v)
	return v, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// lookup reads a cached float. Any cache failure is treated as a miss.
func (c *Cache) lookup(ctx context.Context, key string) (float64, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("exposure cache read failed", "key", key, "error", err)
		}
		return 0, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.logger.Debug("exposure cache holds malformed value", "key", key, "value", raw)
		return 0, false
	}
	return v, true
}

// store writes a resolved float with the configured TTL. Failures are logged
// and otherwise ignored.
func (c *Cache) store(ctx context.Context, key string, v float64) {
	raw := strconv.FormatFloat(v, 'g', -1, 64)
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("exposure cache write failed", "key", key, "error", err)
	}
}
