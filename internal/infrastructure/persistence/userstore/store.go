package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/kv"
	"github.com/Yaasiin-15/StudyDash-sub001/pkg/logger"
)

// Store gives typed access to one backend. It also counts writes per key so
// callers can memoize derived state on collection versions.
type Store struct {
	backend kv.Backend
	logger  *slog.Logger

	mu       sync.Mutex
	versions map[string]uint64
}

// New creates a Store over backend.
func New(backend kv.Backend, log *slog.Logger) *Store {
	return &Store{
		backend:  backend,
		logger:   logger.OrDiscard(log).With(logger.Component("userstore")),
		versions: make(map[string]uint64),
	}
}

// Backend returns the underlying key-value backend.
func (s *Store) Backend() kv.Backend {
	return s.backend
}

// ══════════════════════════════════════════════════════════════════════════════
// RAW ACCESS
// ══════════════════════════════════════════════════════════════════════════════

// LoadRaw returns the stored JSON for c, or its default when the key is
// missing, unreadable or not valid JSON. The result is never empty.
func (s *Store) LoadRaw(ctx context.Context, userID shared.UserID, c Collection) json.RawMessage {
	raw, err := s.FetchRaw(ctx, userID, c)
	if err != nil {
		s.logger.Warn("load failed, using default",
			logger.UserID(userID.String()), logger.Collection(string(c)), logger.Err(err))
		return json.RawMessage(c.Default())
	}
	return raw
}

// FetchRaw is LoadRaw for writers: a backend failure is returned instead of
// being replaced by the default, so callers never write back over a record
// they could not read. Missing and malformed records still yield the default.
func (s *Store) FetchRaw(ctx context.Context, userID shared.UserID, c Collection) (json.RawMessage, error) {
	key := Key(userID, c)
	value, found, err := s.backend.Get(ctx, key)
	switch {
	case err != nil:
		return nil, shared.WrapError("userstore", "Fetch", shared.ErrExternalService, "read "+key, errors.Join(shared.ErrBackendFailed, err))
	case !found:
		return json.RawMessage(c.Default()), nil
	case !json.Valid([]byte(value)):
		s.logger.Warn("malformed record, using default",
			logger.UserID(userID.String()), logger.Collection(string(c)), logger.Key(key))
		return json.RawMessage(c.Default()), nil
	}
	return json.RawMessage(value), nil
}

// Put serializes v and writes it under c.
func (s *Store) Put(ctx context.Context, userID shared.UserID, c Collection, v any) error {
	if !c.IsGlobal() && userID.IsZero() {
		return shared.ErrEmptyUserID
	}
	data, err := json.Marshal(v)
	if err != nil {
		return shared.WrapError("userstore", "Save", shared.ErrInvalidInput, "cannot encode "+string(c), err)
	}

	key := Key(userID, c)
	if err := s.backend.Set(ctx, key, string(data)); err != nil {
		return shared.WrapError("userstore", "Save", shared.ErrExternalService, "write "+key, errors.Join(shared.ErrBackendFailed, err))
	}
	s.bump(key)
	return nil
}

// Remove deletes c for userID.
func (s *Store) Remove(ctx context.Context, userID shared.UserID, c Collection) error {
	key := Key(userID, c)
	if err := s.backend.Remove(ctx, key); err != nil {
		return shared.WrapError("userstore", "Remove", shared.ErrExternalService, "remove "+key, errors.Join(shared.ErrBackendFailed, err))
	}
	s.bump(key)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TYPED ACCESS
// ══════════════════════════════════════════════════════════════════════════════

// Load decodes c into T. Read failures and records that do not decode into
// T are logged and replaced by the collection default.
func Load[T any](ctx context.Context, s *Store, userID shared.UserID, c Collection) T {
	return decode[T](s, userID, c, s.LoadRaw(ctx, userID, c))
}

// LoadList is Load for list collections; the result is never nil.
func LoadList[T any](ctx context.Context, s *Store, userID shared.UserID, c Collection) []T {
	return nonNil(Load[[]T](ctx, s, userID, c))
}

// Fetch decodes c into T and fails when the backend cannot be read. Commands
// that modify and write back a record must use Fetch, not Load.
func Fetch[T any](ctx context.Context, s *Store, userID shared.UserID, c Collection) (T, error) {
	raw, err := s.FetchRaw(ctx, userID, c)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](s, userID, c, raw), nil
}

// FetchList is Fetch for list collections; on success the result is never nil.
func FetchList[T any](ctx context.Context, s *Store, userID shared.UserID, c Collection) ([]T, error) {
	out, err := Fetch[[]T](ctx, s, userID, c)
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func decode[T any](s *Store, userID shared.UserID, c Collection, raw json.RawMessage) T {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn("record does not match type, using default",
			logger.UserID(userID.String()), logger.Collection(string(c)), logger.Err(err))
		out = *new(T)
		_ = json.Unmarshal([]byte(c.Default()), &out)
	}
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// Save writes v and reports success. Failures are logged.
func Save[T any](ctx context.Context, s *Store, userID shared.UserID, c Collection, v T) bool {
	if err := s.Put(ctx, userID, c, v); err != nil {
		s.logger.Error("save failed", logger.UserID(userID.String()), logger.Collection(string(c)), logger.Err(err))
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Init writes the default of every collection that is not yet present.
// Existing records are left alone.
func (s *Store) Init(ctx context.Context, userID shared.UserID) (int, error) {
	written := 0
	for _, c := range All() {
		key := Key(userID, c)
		_, found, err := s.backend.Get(ctx, key)
		if err != nil {
			return written, shared.WrapError("userstore", "Init", shared.ErrExternalService, "read "+key, errors.Join(shared.ErrBackendFailed, err))
		}
		if found {
			continue
		}
		if err := s.Put(ctx, userID, c, json.RawMessage(c.Default())); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// Purge removes every key listed by All for userID and returns how many
// removals were issued.
func (s *Store) Purge(ctx context.Context, userID shared.UserID) (int, error) {
	var errs []error
	removed := 0
	for _, c := range All() {
		if err := s.Remove(ctx, userID, c); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Keys lists the stored keys under the user's prefix, when the backend can.
func (s *Store) Keys(ctx context.Context, userID shared.UserID) ([]string, error) {
	lister, ok := s.backend.(kv.Lister)
	if !ok {
		return nil, shared.NewDomainError("userstore", "Keys", shared.ErrInvalidState, "backend cannot list keys")
	}
	return lister.Keys(ctx, UserPrefix(userID))
}

// ══════════════════════════════════════════════════════════════════════════════
// VERSIONS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Store) bump(key string) {
	s.mu.Lock()
	s.versions[key]++
	s.mu.Unlock()
}

// Version returns how many writes this Store has made to c for userID.
func (s *Store) Version(userID shared.UserID, c Collection) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[Key(userID, c)]
}
