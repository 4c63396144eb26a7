package kv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores values in Redis. With a zero ttl keys never expire; otherwise
// every read or write pushes expiry ttl into the future.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	var cmd *redis.StringCmd
	if r.ttl > 0 {
		cmd = r.client.GetEx(ctx, key, r.ttl)
	} else {
		cmd = r.client.Get(ctx, key)
	}
	v, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
