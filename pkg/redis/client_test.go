package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	client := &Client{store: fake}

	// Limit of 2 per window: first two calls pass, third is rejected.
	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
	require.EqualValues(t, 1, count)
	require.Len(t, fake.expireCalls, 1, "first increment must start the window TTL")

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
	require.EqualValues(t, 2, count)
	require.Len(t, fake.expireCalls, 1, "TTL is only set when the window opens")

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestSetNXLockSemantics(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeRedis()}
	key := client.LockKey("cart-sweeper")

	acquired, err := client.SetNX(ctx, key, "holder-1", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = client.SetNX(ctx, key, "holder-2", time.Minute)
	require.NoError(t, err)
	require.False(t, acquired, "held lock must reject a second holder")

	require.NoError(t, client.Del(ctx, key))

	acquired, err = client.SetNX(ctx, key, "holder-2", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired, "released lock must be acquirable again")
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "sf:lock:cart-sweeper", client.LockKey("cart-sweeper"))
	require.Equal(t, "sf:rate_limit:scope", client.RateLimitKey("scope"))
	require.Equal(t, "sf:rate_limit:user:abc", client.RateLimitKey(" user:abc "), "segments are trimmed")
}

// fakeRedis satisfies the store interface with in-memory maps.
type fakeRedis struct {
	data        map[string]string
	counters    map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		data:     make(map[string]string),
		counters: make(map[string]int64),
	}
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expireCalls = append(f.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
