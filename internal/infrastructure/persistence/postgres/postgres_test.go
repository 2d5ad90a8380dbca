package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuerier records statements and serves values from a map.
type fakeQuerier struct {
	data  map[string]string
	execs []string
	err   error
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	f.execs = append(f.execs, sql)
	switch sql {
	case sqlUpsert:
		f.data[args[0].(string)] = args[1].(string)
	case sqlDelete:
		delete(f.data, args[0].(string))
	}
	return pgconn.CommandTag{}, nil
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if f.err != nil {
		return fakeRow{err: f.err}
	}
	v, ok := f.data[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func TestStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	q := &fakeQuerier{data: map[string]string{}}
	s := NewStore(q, nil)

	_, found, err := s.Get(ctx, "user_1_xp")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "user_1_xp", "30"))
	v, found, err := s.Get(ctx, "user_1_xp")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "30", v)

	require.NoError(t, s.Remove(ctx, "user_1_xp"))
	assert.Empty(t, q.data)
	assert.Equal(t, []string{sqlUpsert, sqlDelete}, q.execs)
}

func TestStore_PermanentErrorNotRetried(t *testing.T) {
	q := &fakeQuerier{data: map[string]string{}, err: errors.New("syntax error")}
	s := NewStore(q, nil)

	err := s.Set(context.Background(), "k", "v")
	assert.EqualError(t, err, "syntax error")
}

func TestConfig_DSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "secret"
	assert.Equal(t, "host=localhost port=5432 dbname=studydash user=postgres password=secret sslmode=disable connect_timeout=5", cfg.DSN())

	cfg.URL = "postgres://u:p@db:5432/x"
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())

	pc, err := cfg.PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(4), pc.MaxConns)
}

func TestPending(t *testing.T) {
	all := GetMigrations()
	require.Len(t, all, 2)

	pending := Pending(all, map[int]time.Time{1: time.Now()})
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	assert.Len(t, Pending(all, nil), 2)
	assert.Empty(t, Pending(all, map[int]time.Time{1: {}, 2: {}}))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(ErrConnectionClosed))
	assert.False(t, IsTransient(errors.New("boom")))
	assert.True(t, IsTransient(context.DeadlineExceeded))
}
