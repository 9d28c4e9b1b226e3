package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter backed by Redis, for deployments
// with more than one API replica. The window key carries the bucket index
// so expired windows clean themselves up via TTL.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int
	prefix string

	now func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		window: window,
		limit:  limit,
		prefix: prefix,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(r *http.Request, key string) (bool, error) {
	ctx := r.Context()
	bucket := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("ratelimit:%s:%s:%d", l.prefix, key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}
