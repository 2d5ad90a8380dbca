package redis

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sort"
	"time"

	"github.com/Yaasiin-15/StudyDash-sub001/pkg/retry"
)

// Store adapts Cache to kv.Backend. Network failures are retried.
type Store struct {
	cache   *Cache
	retrier *retry.Retrier
}

// NewStore creates a Store. A nil logger disables retry logging.
func NewStore(cache *Cache, logger *slog.Logger) *Store {
	onRetry := func(attempt int, err error, delay time.Duration) {
		if logger != nil {
			logger.Warn("redis retry", "attempt", attempt, "delay", delay, "error", err)
		}
	}
	return &Store{
		cache:   cache,
		retrier: retry.StoreRetrier(isTransient, onRetry),
	}
}

// Get implements kv.Backend.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		v, err := s.cache.GetString(ctx, key)
		if errors.Is(err, ErrCacheMiss) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true
		return nil
	})
	return value, found, err
}

// Set implements kv.Backend.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.cache.SetString(ctx, key, value)
	})
}

// Remove implements kv.Backend.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.cache.Delete(ctx, key)
	})
}

// Keys implements kv.Lister.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := retry.Value(ctx, s.retrier, func(ctx context.Context) ([]string, error) {
		return s.cache.ScanPrefix(ctx, prefix)
	})
	sort.Strings(keys)
	return keys, err
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.cache.Close()
}

func isTransient(err error) bool {
	if errors.Is(err, ErrCacheKeyEmpty) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
