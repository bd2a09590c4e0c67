package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Counter increments a key that expires after window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) Counter {
	return &redisCounter{client: client}
}

func (c *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rate limit counter %s: %w", key, err)
	}
	return incr.Val(), nil
}

// RateLimit allows limit requests per user in each fixed window. A nil counter
// or a non-positive limit disables it; counter errors let the request through.
func RateLimit(counter Counter, limit int, window time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				userID = "ip:" + r.RemoteAddr
			}
			now := time.Now()
			bucket := now.Truncate(window)
			key := fmt.Sprintf("ratelimit:%s:%s:%d", r.URL.Path, userID, bucket.Unix())

			n, err := counter.Incr(r.Context(), key, window)
			if err != nil {
				logger.Error().Err(err).Msg("Rate limiter unavailable; allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if n > int64(limit) {
				retryAfter := int(bucket.Add(window).Sub(now).Seconds()) + 1
				logger.Warn().Str("user_id", userID).Str("path", r.URL.Path).Int64("count", n).Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please wait before trying again.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
