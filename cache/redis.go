package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries in redis, for deployments where the SDK runs
// server-side and cached reads should be shared across instances. Every
// operation runs under a short client timeout so a slow or absent redis never
// stalls the request path.
type RedisBackend struct {
	client  redis.Cmdable
	timeout time.Duration
}

// NewRedisBackend wraps an existing redis client. A non-positive timeout
// defaults to one second.
func NewRedisBackend(client redis.Cmdable, timeout time.Duration) *RedisBackend {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &RedisBackend{client: client, timeout: timeout}
}

func (r *RedisBackend) Read(key string) ([]byte, error) {
	ctx, cancel := r.opCtx()
	defer cancel()
	return r.client.Get(ctx, key).Bytes()
}

func (r *RedisBackend) Write(key string, data []byte) error {
	ctx, cancel := r.opCtx()
	defer cancel()
	// No redis-side expiry: the Store owns TTL semantics so expiry behaves
	// identically across backends.
	return r.client.Set(ctx, key, data, 0).Err()
}

func (r *RedisBackend) Remove(key string) error {
	ctx, cancel := r.opCtx()
	defer cancel()
	err := r.client.Del(ctx, key).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

func (r *RedisBackend) Keys() ([]string, error) {
	ctx, cancel := r.opCtx()
	defer cancel()

	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, "*", 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (r *RedisBackend) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

var _ Backend = (*RedisBackend)(nil)
