package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore implements SessionStore on a Redis client, so every
// platform instance sees the same live sessions. The key TTL is the expiry
// mechanism: active sessions get the idle TTL refreshed on each save, ended
// sessions get the longer retention window.
type RedisSessionStore struct {
	client    *redis.Client
	ttl       time.Duration
	retention time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store.
// Non-positive durations fall back to the package defaults.
func NewRedisSessionStore(client *redis.Client, ttl, retention time.Duration) *RedisSessionStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if retention <= 0 {
		retention = DefaultEndedRetention
	}
	return &RedisSessionStore{client: client, ttl: ttl, retention: retention}
}

func (rs *RedisSessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := rs.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &session, nil
}

func (rs *RedisSessionStore) Save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Join(ErrFailedToSave, err)
	}

	ttl := rs.ttl
	if session.Status == SessionEnded {
		ttl = rs.retention
	}
	if err := rs.client.Set(ctx, sessionKeyPrefix+session.ID, data, ttl).Err(); err != nil {
		return errors.Join(ErrFailedToSave, err)
	}
	return nil
}

func (rs *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := rs.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (rs *RedisSessionStore) CountActive(ctx context.Context) (int, error) {
	n := 0

	iter := rs.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := rs.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and read
		}
		if err != nil {
			return 0, errors.Join(ErrStoreUnavailable, err)
		}

		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			return 0, errors.Join(ErrStoreUnavailable, err)
		}
		if session.Status == SessionActive {
			n++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return n, nil
}
