package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "gs:credential"

// Redis stores the credential under a single Redis key.
//
// A zero TTL keeps the key until Clear; a positive TTL lets Redis expire the slot, after
// which Get reports an empty slot.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedis returns a slot stored at key. An empty key falls back to "gs:credential".
func NewRedis(client redis.UniversalClient, key string, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if ttl < 0 {
		return nil, errors.New("credential TTL must be >= 0")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = defaultRedisKey
	}
	return &Redis{client: client, key: key, ttl: ttl}, nil
}

// Key returns the Redis key backing the slot.
func (r *Redis) Key() string {
	return r.key
}

func (r *Redis) Get(ctx context.Context) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, credential string) error {
	if err := r.client.Set(ctx, r.key, credential, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	return nil
}
