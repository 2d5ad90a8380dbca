// Package redis implements the key-value backend on Redis, and forwards
// progress events onto a Redis pub/sub channel.
//
// Key components:
//   - Cache: connection handling and string operations
//   - Store: kv.Backend with retries on transient failures
//   - EventForwarder: publishes level-up notifications
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// KeyPrefix namespaces every key this process writes.
	KeyPrefix string

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		KeyPrefix:    "studydash:",
		PoolSize:     5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when the requested key is not found.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")
)

// PrefixPubSub is the prefix for pub/sub channels.
const PrefixPubSub = "pubsub:"

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Cache wraps a go-redis client with key namespacing.
type Cache struct {
	client *redis.Client
	config Config
}

// NewCache connects and pings Redis.
func NewCache(cfg Config) (*Cache, error) {
	cache := NewCacheWithClient(redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		// Retries happen one level up, in Store.
		MaxRetries: -1,
	}), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := cache.Ping(ctx); err != nil {
		cache.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return cache, nil
}

// NewCacheWithClient wraps an existing client without pinging it. NewCache
// uses it once the client is configured; tests hand in a client of their own.
func NewCacheWithClient(client *redis.Client, cfg Config) *Cache {
	return &Cache{client: client, config: cfg}
}

// Client returns the underlying Redis client.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) key(k string) string {
	return c.config.KeyPrefix + k
}

// ══════════════════════════════════════════════════════════════════════════════
// STRING OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SetString stores a raw string without expiry.
func (c *Cache) SetString(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	return c.client.Set(ctx, c.key(key), value, 0).Err()
}

// GetString returns ErrCacheMiss if the key doesn't exist.
func (c *Cache) GetString(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrCacheKeyEmpty
	}

	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// ScanPrefix returns every key starting with prefix, without the namespace.
// Glob metacharacters in prefix match literally.
func (c *Cache) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	iter := c.client.Scan(ctx, 0, globEscaper.Replace(c.key(prefix))+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(c.config.KeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Publish sends a payload to a pub/sub channel.
func (c *Cache) Publish(ctx context.Context, channel string, payload []byte) error {
	if channel == "" {
		return ErrCacheKeyEmpty
	}
	return c.client.Publish(ctx, PubSubChannel(channel), payload).Err()
}

// Subscribe opens a subscription. Close the returned PubSub when done.
func (c *Cache) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	full := make([]string, len(channels))
	for i, ch := range channels {
		full[i] = PubSubChannel(ch)
	}
	return c.client.Subscribe(ctx, full...)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// PubSubChannel generates a pub/sub channel name.
func PubSubChannel(eventType string) string {
	return PrefixPubSub + eventType
}
