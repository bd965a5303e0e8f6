package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "sid", "token", "t1"))
		v, err := store.Get(ctx, "sid", "token")
		require.NoError(t, err)
		assert.Equal(t, "t1", v)
		assert.True(t, s.Exists("session:sid:token"))
		assert.Equal(t, time.Hour, s.TTL("session:sid:token"))
	})

	t.Run("GetMissing", func(t *testing.T) {
		v, err := store.Get(ctx, "sid", "absent")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "sid", "user", "{}"))
		require.NoError(t, store.Delete(ctx, "sid", "token", "user"))
		assert.False(t, s.Exists("session:sid:token"))
		assert.False(t, s.Exists("session:sid:user"))
		require.NoError(t, store.Delete(ctx, "sid"))
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "sid2", "token", "t2"))
		s.FastForward(2 * time.Hour)
		v, err := store.Get(ctx, "sid2", "token")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("ServerDown", func(t *testing.T) {
		s.SetError("boom")
		defer s.SetError("")
		_, err := store.Get(ctx, "sid", "token")
		assert.Error(t, err)
	})
}

func TestRedisStoreNilClient(t *testing.T) {
	store := NewRedisStore(nil, time.Hour)
	ctx := context.Background()
	_, err := store.Get(ctx, "a", "b")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "a", "b", "c"))
	assert.Error(t, store.Delete(ctx, "a", "b"))
}
