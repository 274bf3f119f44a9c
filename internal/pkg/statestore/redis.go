package statestore

import (
	"context"
	"errors"
	"time"

	"github.com/mutualsplus/site/internal/pkg/redis"
)

// Redis stores state as plain string values under the "state" namespace.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) key(k string) string { return r.client.Key("state", k) }

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.GetBytes(ctx, r.key(key))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (r *Redis) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key))
}
