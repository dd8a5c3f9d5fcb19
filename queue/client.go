package queue

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// DefaultPrefix namespaces all queue keys when RedisOptions.Prefix is empty.
const DefaultPrefix = "perilpool"

// Client defines the interface for interacting with the Redis-based run queue.
type Client interface {
	// Push adds a run request to the end of the run queue (LPUSH).
	Push(ctx context.Context, req RunRequest) error

	// Pop removes and returns a run request from the front of the run queue (BRPOP).
	// Blocks until a request is available or context is cancelled.
	Pop(ctx context.Context) (*RunRequest, error)

	// PublishResult sends a run result to the run's pub/sub channel.
	PublishResult(ctx context.Context, result RunResult) error

	// SubscribeResults creates a subscription to a run's result channel.
	// Returns a channel that receives results until the subscription is closed.
	SubscribeResults(ctx context.Context, runID string) (<-chan RunResult, error)

	// RegisterEngine writes engine metadata to Redis and adds to the available set.
	RegisterEngine(ctx context.Context, meta EngineMeta) error

	// ListEngines returns metadata for all registered engines.
	ListEngines(ctx context.Context) ([]EngineMeta, error)

	// Heartbeat updates the health key for an engine with a 30s TTL.
	Heartbeat(ctx context.Context, engineName string) error

	// GetWorkerCount returns the current worker count for an engine.
	GetWorkerCount(ctx context.Context, engineName string) (int, error)

	// IncrementWorkerCount increments the worker count for an engine.
	IncrementWorkerCount(ctx context.Context, engineName string) error

	// DecrementWorkerCount decrements the worker count for an engine.
	DecrementWorkerCount(ctx context.Context, engineName string) error

	// Close closes the Redis connection.
	Close() error
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// Prefix namespaces all keys so independent deployments can share a
	// Redis instance. Defaults to DefaultPrefix.
	Prefix string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// RedisClient implements the Client interface using go-redis/v9.
type RedisClient struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a new Redis queue client with the given options.
func NewRedisClient(opts RedisOptions) (*RedisClient, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}

	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client, prefix: opts.Prefix}, nil
}

// key joins parts under the client's prefix with the <prefix>:part:... pattern.
func (c *RedisClient) key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Push adds a run request to the end of the run queue.
func (c *RedisClient) Push(ctx context.Context, req RunRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal run request: %w", err)
	}

	queueKey := c.key("runs", "queue")
	if err := c.client.LPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push to queue %s: %w", queueKey, err)
	}

	return nil
}

// Pop removes and returns a run request from the front of the run queue.
// Blocks until a request is available or context is cancelled.
func (c *RedisClient) Pop(ctx context.Context) (*RunRequest, error) {
	queueKey := c.key("runs", "queue")

	// BRPOP returns [queue_name, value] or empty if timeout
	result, err := c.client.BRPop(ctx, 0, queueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue %s: %w", queueKey, err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length: %d", len(result))
	}

	var req RunRequest
	if err := json.Unmarshal([]byte(result[1]), &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run request: %w", err)
	}

	return &req, nil
}

// PublishResult sends a run result to the run's pub/sub channel.
func (c *RedisClient) PublishResult(ctx context.Context, result RunResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}

	channel := c.key("results", result.RunID)
	if err := c.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}

	return nil
}

// SubscribeResults creates a subscription to a run's result channel.
func (c *RedisClient) SubscribeResults(ctx context.Context, runID string) (<-chan RunResult, error) {
	channel := c.key("results", runID)
	pubsub := c.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	resultChan := make(chan RunResult)

	go func() {
		defer close(resultChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var result RunResult
				if err := json.Unmarshal([]byte(msg.Payload), &result); err != nil {
					// Skip malformed payloads but keep the subscription alive
					continue
				}

				select {
				case resultChan <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return resultChan, nil
}

// RegisterEngine writes engine metadata to Redis and adds to the available set.
func (c *RedisClient) RegisterEngine(ctx context.Context, meta EngineMeta) error {
	// Convert tags slice to JSON string for Redis storage
	tagsJSON, err := json.Marshal(meta.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	// Build a flat map for HSET - all values must be strings for go-redis
	metaMap := map[string]string{
		"name":         meta.Name,
		"version":      meta.Version,
		"description":  meta.Description,
		"tags":         string(tagsJSON),
		"worker_count": strconv.Itoa(meta.WorkerCount),
	}

	// Write metadata to hash using individual field-value pairs
	metaKey := c.key("engine", meta.Name, "meta")
	args := make([]interface{}, 0, len(metaMap)*2)
	for k, v := range metaMap {
		args = append(args, k, v)
	}
	if err := c.client.HSet(ctx, metaKey, args...).Err(); err != nil {
		return fmt.Errorf("failed to set engine metadata: %w", err)
	}

	// Add to available engines set
	if err := c.client.SAdd(ctx, c.key("engines", "available"), meta.Name).Err(); err != nil {
		return fmt.Errorf("failed to add engine to available set: %w", err)
	}

	return nil
}

// listEnginesFetchLimit caps the concurrent metadata fetches in ListEngines.
const listEnginesFetchLimit = 8

// ListEngines returns metadata for all registered engines.
//
// Metadata hashes are fetched concurrently. An engine whose hash is missing
// or unreadable is dropped from the listing; the available set may hold stale
// members after an unclean engine shutdown.
func (c *RedisClient) ListEngines(ctx context.Context) ([]EngineMeta, error) {
	// Get all engine names from the set
	engineNames, err := c.client.SMembers(ctx, c.key("engines", "available")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get available engines: %w", err)
	}

	// Results are indexed by position so the listing keeps set order.
	found := make([]*EngineMeta, len(engineNames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listEnginesFetchLimit)
	for i, name := range engineNames {
		g.Go(func() error {
			metaKey := c.key("engine", name, "meta")
			metaMap, err := c.client.HGetAll(gctx, metaKey).Result()
			if err != nil || len(metaMap) == 0 {
				return nil
			}
			meta := parseEngineMeta(metaMap)
			found[i] = &meta
			return nil
		})
	}
	// Fetch failures only drop entries, so the group never returns an error.
	_ = g.Wait()

	engines := make([]EngineMeta, 0, len(engineNames))
	for _, meta := range found {
		if meta != nil {
			engines = append(engines, *meta)
		}
	}
	return engines, nil
}

// parseEngineMeta rebuilds an EngineMeta from its Redis hash representation.
func parseEngineMeta(metaMap map[string]string) EngineMeta {
	meta := EngineMeta{
		Name:        metaMap["name"],
		Version:     metaMap["version"],
		Description: metaMap["description"],
	}

	// Tags are stored as a JSON string in the hash
	if tagsStr, ok := metaMap["tags"]; ok {
		var tags []string
		if err := json.Unmarshal([]byte(tagsStr), &tags); err == nil {
			meta.Tags = tags
		}
	}

	if countStr, ok := metaMap["worker_count"]; ok {
		if count, err := strconv.Atoi(countStr); err == nil {
			meta.WorkerCount = count
		}
	}

	return meta
}

// Heartbeat updates the health key for an engine with a 30s TTL.
func (c *RedisClient) Heartbeat(ctx context.Context, engineName string) error {
	healthKey := c.key("engine", engineName, "health")
	if err := c.client.Set(ctx, healthKey, "ok", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("failed to set heartbeat for engine %s: %w", engineName, err)
	}
	return nil
}

// GetWorkerCount returns the current worker count for an engine.
func (c *RedisClient) GetWorkerCount(ctx context.Context, engineName string) (int, error) {
	workerKey := c.key("engine", engineName, "workers")
	countStr, err := c.client.Get(ctx, workerKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get worker count for engine %s: %w", engineName, err)
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, fmt.Errorf("invalid worker count value: %w", err)
	}

	return count, nil
}

// IncrementWorkerCount increments the worker count for an engine.
func (c *RedisClient) IncrementWorkerCount(ctx context.Context, engineName string) error {
	workerKey := c.key("engine", engineName, "workers")
	if err := c.client.Incr(ctx, workerKey).Err(); err != nil {
		return fmt.Errorf("failed to increment worker count for engine %s: %w", engineName, err)
	}
	return nil
}

// DecrementWorkerCount decrements the worker count for an engine.
func (c *RedisClient) DecrementWorkerCount(ctx context.Context, engineName string) error {
	workerKey := c.key("engine", engineName, "workers")
	if err := c.client.Decr(ctx, workerKey).Err(); err != nil {
		return fmt.Errorf("failed to decrement worker count for engine %s: %w", engineName, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}
