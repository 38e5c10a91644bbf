package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 5 * time.Minute

// Lock keeps concurrent worker replicas from sweeping the same carts twice.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease with an owner token. The TTL bounds how long a
// crashed holder can block other replicas.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration

	// owner is the token minted on the last successful Acquire. Empty means
	// this instance holds nothing.
	owner string
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("redis client required for lock")
	case key == "":
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

// Acquire claims the lease under a fresh owner token.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()

	acquired, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if acquired {
		l.owner = token
	}
	return acquired, nil
}

// Release drops the lease, but only while this instance still owns it. If
// the TTL lapsed and another replica took over, their lease is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}

	holder, err := l.store.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read lock owner: %w", err)
	case holder != l.owner:
		return nil
	}

	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}
