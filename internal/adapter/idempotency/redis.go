package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polkiloo/storefront/internal/domain/repository"
)

const (
	keyPrefix    = "idem:order:create:"
	pendingValue = "pending"
)

// redisClient is the subset of *redis.Client used by RedisStore.
type redisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps idempotency keys in Redis. A key holds "pending" while
// its placement runs and the order id afterwards; both expire after ttl.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisStore creates RedisStore.
func NewRedisStore(client redisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// reserveAttempts bounds SETNX retries when the key expires between SETNX and GET.
const reserveAttempts = 2

func (s *RedisStore) Reserve(ctx context.Context, key string) (int64, bool, error) {
	k := keyPrefix + key
	for attempt := 1; ; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingValue, s.ttl).Result()
		if err != nil {
			return 0, false, fmt.Errorf("reserve %s: %w", k, err)
		}
		if ok {
			return 0, true, nil
		}

		val, err := s.client.Get(ctx, k).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if attempt < reserveAttempts {
				continue
			}
			return 0, false, nil
		case err != nil:
			return 0, false, fmt.Errorf("read %s: %w", k, err)
		case val == pendingValue:
			return 0, false, nil
		}

		orderID, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("corrupt idempotency value %q: %w", val, err)
		}
		return orderID, false, nil
	}
}

func (s *RedisStore) Complete(ctx context.Context, key string, orderID int64) error {
	if err := s.client.Set(ctx, keyPrefix+key, orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("complete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

var _ repository.IdempotencyStore = (*RedisStore)(nil)
