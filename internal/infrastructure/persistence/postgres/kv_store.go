package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/Yaasiin-15/StudyDash-sub001/pkg/retry"
)

const (
	sqlGet    = `SELECT value FROM kv_entries WHERE key = $1`
	sqlUpsert = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	sqlDelete = `DELETE FROM kv_entries WHERE key = $1`
	// LIKE would treat '_' in user keys as a wildcard.
	sqlKeys = `SELECT key FROM kv_entries WHERE left(key, length($1)) = $1 ORDER BY key`
)

// Store is a kv.Backend over the kv_entries table.
type Store struct {
	q       Querier
	retrier *retry.Retrier
}

// NewStore creates a Store. A nil logger disables retry logging.
func NewStore(q Querier, logger *slog.Logger) *Store {
	onRetry := func(attempt int, err error, delay time.Duration) {
		if logger != nil {
			logger.Warn("postgres retry", "attempt", attempt, "delay", delay, "error", err)
		}
	}
	return &Store{q: q, retrier: retry.StoreRetrier(IsTransient, onRetry)}
}

// Get implements kv.Backend.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		err := s.q.QueryRow(ctx, sqlGet, key).Scan(&value)
		if IsNoRows(err) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return value, found, err
}

// Set implements kv.Backend.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := s.q.Exec(ctx, sqlUpsert, key, value)
		return err
	})
}

// Remove implements kv.Backend.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := s.q.Exec(ctx, sqlDelete, key)
		return err
	})
}

// Keys implements kv.Lister.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		keys = keys[:0]
		rows, err := s.q.Query(ctx, sqlKeys, prefix)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				return err
			}
			keys = append(keys, k)
		}
		return rows.Err()
	})
	return keys, err
}
