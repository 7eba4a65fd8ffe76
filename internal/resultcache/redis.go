package resultcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "trade-reconcile-service/pkg/errors"
)

const redisKeyPrefix = "reconcile:export:"

// RedisCache stores export payloads in Redis so downloads survive process
// restarts and work behind multiple instances. Expiry is delegated to Redis
// via the key TTL; the item limit does not apply to this backend.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.Internal("redis connect", err)
	}

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// Put stores the payload under a fresh token with the configured TTL.
func (c *RedisCache) Put(ctx context.Context, payload Payload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.Internal("encode cached export", err)
	}

	token := newToken()
	if err := c.client.Set(ctx, redisKeyPrefix+token, raw, c.ttl).Err(); err != nil {
		return "", apperrors.Internal("store cached export", err)
	}
	return token, nil
}

// Get returns the payload for the token. Tokens Redis has expired read as
// unknown.
func (c *RedisCache) Get(ctx context.Context, token string) (Payload, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return Payload{}, apperrors.UnknownToken(token)
	}
	if err != nil {
		return Payload{}, apperrors.Internal("read cached export", err)
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, apperrors.Internal("decode cached export", err)
	}
	return payload, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
