package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis client. Counters are shared across
// all platform instances, so quotas hold under horizontal scaling.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("ratelimit: redis client cannot be nil")
	}
	return &RedisStore{client: client}
}

func (rs *RedisStore) IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	pipe := rs.client.TxPipeline()
	incrCmd := pipe.IncrBy(ctx, key, int64(incr))
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, errors.Join(ErrStoreUnavailable, err)
	}

	current := incrCmd.Val()
	ttl := ttlCmd.Val()

	// A negative TTL means the key has no expiry yet: it was just created
	// (or a previous EXPIRE never landed), so arm the window now.
	if ttl < 0 && window > 0 {
		if err := rs.client.Expire(ctx, key, window).Err(); err != nil {
			return current, 0, errors.Join(ErrStoreUnavailable, err)
		}
		ttl = window
	}
	if ttl < 0 {
		ttl = 0
	}

	return current, ttl, nil
}

func (rs *RedisStore) Get(ctx context.Context, key string) (int64, time.Duration, error) {
	current, err := rs.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, errors.Join(ErrStoreUnavailable, err)
	}

	ttl, err := rs.client.TTL(ctx, key).Result()
	if err != nil {
		return current, 0, errors.Join(ErrStoreUnavailable, err)
	}
	if ttl < 0 {
		ttl = 0
	}

	return current, ttl, nil
}

func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
