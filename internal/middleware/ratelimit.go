// Package middleware provides request-scoped middleware: logging, rate
// limiting, metrics, tracing and the site gate.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

var errNoRedis = errors.New("redis client is nil")

// RateLimiter is a fixed-window request counter backed by Redis INCR.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
	policy  FailPolicy
}

// NewRateLimiter returns a limiter for env. Limiting is disabled in the
// "test", "development" and "stress" environments.
func NewRateLimiter(rdb *redis.Client, env string, policy FailPolicy) *RateLimiter {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "test", "development", "stress":
		return &RateLimiter{rdb: rdb, enabled: false, policy: policy}
	}
	return &RateLimiter{rdb: rdb, enabled: true, policy: policy}
}

// Allow reports whether id may make another request against resource.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if !l.enabled {
		return true, nil
	}
	if l.rdb == nil {
		return false, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Limit returns a Fiber middleware enforcing limit requests per window under
// name. It keys by the session user when one is known, otherwise by IP.
func (l *RateLimiter) Limit(limit int, window time.Duration, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.Locals("userID").(uint); ok {
			id = "user:" + strconv.FormatUint(uint64(uid), 10)
		} else {
			id = "ip:" + c.IP()
		}

		allowed, err := l.Allow(c.UserContext(), name, id, limit, window)
		if err != nil {
			if l.policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "Rate limit fail-closed",
					slog.String("path", c.Path()), slog.String("resource", name), slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
