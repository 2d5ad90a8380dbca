// Package bolt implements the key-value backend on a single bbolt file.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// DefaultBucket holds every key.
const DefaultBucket = "studydash"

// Config holds bbolt configuration.
type Config struct {
	// Path of the database file. Parent directories are created.
	Path string

	// Bucket name. Empty means DefaultBucket.
	Bucket string

	// OpenTimeout bounds waiting for the file lock.
	OpenTimeout time.Duration
}

// DefaultConfig returns a config pointing at ./data/studydash.db.
func DefaultConfig() Config {
	return Config{
		Path:        filepath.Join("data", "studydash.db"),
		Bucket:      DefaultBucket,
		OpenTimeout: time.Second,
	}
}

// Store is a kv.Backend over one bbolt bucket.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Open opens (or creates) the database and its bucket.
func Open(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := bbolt.Open(cfg.Path, 0o600, &bbolt.Options{Timeout: cfg.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", cfg.Path, err)
	}

	bucket := []byte(cfg.Bucket)
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
	}

	return &Store{db: db, bucket: bucket}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements kv.Backend. bbolt is local, so ctx is only checked up front.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		// v is only valid inside the transaction.
		value, found = string(v), true
		return nil
	})
	return value, found, err
}

// Set implements kv.Backend.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), []byte(value))
	})
}

// Remove implements kv.Backend.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Keys implements kv.Lister using a cursor seek, so results are sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []string
	p := []byte(prefix)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			out = append(out, string(k))
		}
		return nil
	})
	return out, err
}
