package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, limit, window, "login"), mr
}

func TestAllow_WithinAndOverLimit(t *testing.T) {
	l, _ := newLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")
}

func TestAllow_WindowExpires(t *testing.T) {
	l, mr := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	assert.False(t, ok)

	assert.Equal(t, time.Minute, mr.TTL("login:k"))
	assert.Greater(t, l.RetryAfter(ctx, "k"), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)

	ok, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_FailsOpen(t *testing.T) {
	l, mr := newLimiter(t, 1, time.Minute)
	mr.Close()

	ok, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestReset(t *testing.T) {
	l, _ := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "k")
	ok, _ := l.Allow(ctx, "k")
	require.False(t, ok)

	require.NoError(t, l.Reset(ctx, "k"))
	ok, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClientKey(t *testing.T) {
	assert.Equal(t, "10.0.0.1", ClientKey("10.0.0.1:40001"))
	assert.Equal(t, "10.0.0.1", ClientKey("10.0.0.1:40002"))
	assert.Equal(t, "::1", ClientKey("[::1]:8080"))
	assert.Equal(t, "bufconn", ClientKey("bufconn"))
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	_ = c.Close()

	mr.Close()
	_, err = NewClient(context.Background(), mr.Addr())
	assert.Error(t, err)
}
