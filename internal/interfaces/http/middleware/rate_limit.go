// internal/interfaces/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter counts hits per key within the current window
type RateLimiter interface {
	Hit(ctx context.Context, key string) (int64, error)
}

// RedisRateLimiter keeps fixed one-minute windows in Redis
type RedisRateLimiter struct {
	client redis.UniversalClient
	window time.Duration
}

func NewRedisRateLimiter(client redis.UniversalClient) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, window: time.Minute}
}

// Hit increments the key and starts its window on the first hit
func (r *RedisRateLimiter) Hit(ctx context.Context, key string) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimit limits requests per client IP. When the limiter is down the
// request is let through.
func RateLimit(limit int, limiter RateLimiter, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rate_limit:" + c.ClientIP()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		count, err := limiter.Hit(ctx, key)
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
