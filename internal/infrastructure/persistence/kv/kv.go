// Package kv defines the opaque string-keyed store the user store sits on,
// plus an in-process implementation.
package kv

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// Backend is a flat string key-value store. Get reports found=false for a
// missing key. Remove of a missing key is not an error.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Lister is implemented by backends that can enumerate keys by prefix.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ErrNotListable is returned by wrappers whose inner backend cannot list keys.
var ErrNotListable = errors.New("backend cannot list keys")

// Memory is a map-backed Backend. The zero value is not usable; call NewMemory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements Backend.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Backend.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Remove implements Backend.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys implements Lister. Keys are returned sorted.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
