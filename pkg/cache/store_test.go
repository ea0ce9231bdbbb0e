package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := NewRedisClient(RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(rc.Close)
	return NewRedisStore(rc.GetClient(), "catalog:"), mr
}

func TestNewRedisClientRequiresAddr(t *testing.T) {
	_, err := NewRedisClient(RedisOptions{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorContains(t, err, "REDIS_ADDR")
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	_, err := s.Get(ctx, "catalog:main")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "catalog:main", []byte(`[{"id":1}]`), time.Minute))
	require.NoError(t, s.Set(ctx, "catalog:filter:abc", []byte(`{}`), time.Minute))

	got, err := s.Get(ctx, "catalog:main")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(got))

	members, err := mr.Members("catalog:keys")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"catalog:main", "catalog:filter:abc"}, members)

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "catalog:main")
	assert.ErrorIs(t, err, ErrMiss, "entries expire with their TTL")
}

func TestRedisStoreInvalidate(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	n, err := s.Invalidate(ctx, "catalog:")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Set(ctx, "catalog:main", []byte("a"), 0))
	require.NoError(t, s.Set(ctx, "catalog:filter:1", []byte("b"), 0))

	n, err = s.Invalidate(ctx, "catalog:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists("catalog:main"))
	assert.False(t, mr.Exists("catalog:keys"))

	_, err = s.Invalidate(ctx, "other:")
	assert.Error(t, err)
}

func TestRedisStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	mr.Close()

	_, err := s.Get(ctx, "catalog:main")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, time.Minute)

	_, err := s.Get(ctx, "catalog:main")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "catalog:main", []byte("a"), 0))
	require.NoError(t, s.Set(ctx, "catalog:filter:1", []byte("b"), 0))
	require.NoError(t, s.Set(ctx, "catalog:filter:2", []byte("c"), 0))

	_, err = s.Get(ctx, "catalog:main")
	assert.ErrorIs(t, err, ErrMiss, "least recently used entry is evicted")

	got, err := s.Get(ctx, "catalog:filter:2")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got)

	n, err := s.Invalidate(ctx, "catalog:filter:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = s.Get(ctx, "catalog:filter:1")
	assert.ErrorIs(t, err, ErrMiss)
}
