package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pollInterval = 25 * time.Millisecond

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX. The TTL bounds how long a
// crashed holder can block a key.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait, logger: logger}
}

func redisKey(key string) string {
	return "lock:" + key
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	rk := redisKey(key)

	deadline := time.NewTimer(r.wait)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, rk, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: %s", ErrTimeout, key)
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.release(ctx, key, rk, token) })
	}, nil
}

func (r *RedisLocker) release(ctx context.Context, key, rk, token string) {
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := releaseScript.Run(relCtx, r.client, []string{rk}, token).Err(); err != nil {
		r.logger.Error("redis unlock failed", zap.String("key", key), zap.Error(err))
	}
}
