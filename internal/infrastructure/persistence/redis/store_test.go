package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
)

type StoreSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	cache *Cache
	store *Store
}

func (s *StoreSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client := goredis.NewClient(&goredis.Options{Addr: s.mr.Addr()})
	cfg := DefaultConfig()
	s.cache = NewCacheWithClient(client, cfg)
	s.store = NewStore(s.cache, nil)
}

func (s *StoreSuite) TearDownTest() {
	s.cache.Close()
}

func (s *StoreSuite) TestGetMissing() {
	_, found, err := s.store.Get(context.Background(), "user_1_xp")
	s.Require().NoError(err)
	s.False(found)
}

func (s *StoreSuite) TestSetGetRemove() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "user_1_xp", "70"))
	raw, err := s.mr.Get("studydash:user_1_xp")
	s.Require().NoError(err, "keys are namespaced")
	s.Equal("70", raw)

	v, found, err := s.store.Get(ctx, "user_1_xp")
	s.Require().NoError(err)
	s.True(found)
	s.Equal("70", v)

	s.Require().NoError(s.store.Remove(ctx, "user_1_xp"))
	s.False(s.mr.Exists("studydash:user_1_xp"))
}

func (s *StoreSuite) TestKeys() {
	ctx := context.Background()
	for _, k := range []string{"user_1_xp", "user_1_grades", "user_2_xp"} {
		s.Require().NoError(s.store.Set(ctx, k, "x"))
	}

	keys, err := s.store.Keys(ctx, "user_1_")
	s.Require().NoError(err)
	s.Equal([]string{"user_1_grades", "user_1_xp"}, keys)
}

func (s *StoreSuite) TestKeysRetriesNetworkErrors() {
	var buf bytes.Buffer
	store := NewStore(s.cache, slog.New(slog.NewTextHandler(&buf, nil)))
	s.mr.Close()

	_, err := store.Keys(context.Background(), "user_1_")
	s.Error(err)
	s.Equal(2, strings.Count(buf.String(), "redis retry"))
}

func (s *StoreSuite) TestKeysEscapesGlob() {
	ctx := context.Background()
	for _, k := range []string{"user_a*_xp", "user_ab_xp", "user_a?_xp"} {
		s.Require().NoError(s.store.Set(ctx, k, "x"))
	}

	keys, err := s.store.Keys(ctx, "user_a*_")
	s.Require().NoError(err)
	s.Equal([]string{"user_a*_xp"}, keys)
}

func (s *StoreSuite) TestEmptyKeyRejected() {
	err := s.store.Set(context.Background(), "", "x")
	s.ErrorIs(err, ErrCacheKeyEmpty)
}

func (s *StoreSuite) TestForwarderPublishes() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := s.cache.Subscribe(ctx, string(shared.EventLevelUp))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	s.Require().NoError(err)

	f := NewEventForwarder(s.cache, nil)
	s.Require().NoError(f.Handle(shared.NewLevelUpEvent("u1", 1, 2, 105)))

	msg, err := sub.ReceiveMessage(ctx)
	s.Require().NoError(err)
	s.Equal("pubsub:progress.level_up", msg.Channel)

	var payload map[string]any
	s.Require().NoError(json.Unmarshal([]byte(msg.Payload), &payload))
	s.Equal("u1", payload["user_id"])
	s.EqualValues(2, payload["new_level"])
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func TestNewCache_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 1
	cfg.DialTimeout = 100 * time.Millisecond

	_, err := NewCache(cfg)
	require.ErrorIs(t, err, ErrCacheConnection)
}
