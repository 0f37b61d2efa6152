package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	subscriptionKeyPrefix = "subscription:"
	credentialKeyPrefix   = "apikey:"

	// recordTTL outlives the 30-day validity window so an expired record
	// still reads as inactive instead of vanishing mid-grace.
	recordTTL = 35 * 24 * time.Hour
)

// RedisStore implements Store on a Redis client. Redis is the single source
// of truth for subscription state across platform instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed subscription store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("subscription: redis client cannot be nil")
	}
	return &RedisStore{client: client}
}

func (rs *RedisStore) Get(ctx context.Context, tenantID string) (*Subscription, error) {
	data, err := rs.client.Get(ctx, subscriptionKeyPrefix+tenantID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &sub, nil
}

// Save writes the record and refreshes every credential index entry in one
// transaction, so the reverse index never outlives or lags the record.
func (rs *RedisStore) Save(ctx context.Context, sub *Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return errors.Join(ErrFailedToSave, err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, subscriptionKeyPrefix+sub.TenantID, data, recordTTL)
	for _, cred := range sub.Credentials {
		pipe.Set(ctx, credentialKeyPrefix+cred.Key, sub.TenantID, recordTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrFailedToSave, err)
	}
	return nil
}

func (rs *RedisStore) List(ctx context.Context) ([]*Subscription, error) {
	var subs []*Subscription

	iter := rs.client.Scan(ctx, 0, subscriptionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := rs.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and read
		}
		if err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}

		var sub Subscription
		if err := json.Unmarshal(data, &sub); err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		subs = append(subs, &sub)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return subs, nil
}

func (rs *RedisStore) ResolveCredential(ctx context.Context, key string) (string, error) {
	tenantID, err := rs.client.Get(ctx, credentialKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCredentialNotFound
	}
	if err != nil {
		return "", errors.Join(ErrStoreUnavailable, err)
	}
	return tenantID, nil
}

func (rs *RedisStore) UnlinkCredential(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, credentialKeyPrefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
