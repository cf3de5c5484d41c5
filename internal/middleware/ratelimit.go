// Package middleware provides logging, rate limiting, tracing and metrics
// middleware for the application.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"evcircle/internal/models"
)

var errNoRedis = errors.New("rate limit store not configured")

// Limit is a fixed-window budget of Max requests per Window, shared by every
// route registered under the same Name.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	// FailClosed rejects requests with 503 while Redis is unreachable.
	// The default lets them through.
	FailClosed bool
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts requests per subject in Redis.
type RateLimiter struct {
	rdb      *redis.Client
	disabled bool
}

// NewRateLimiter returns a limiter backed by rdb. Limits are not enforced in
// the development and test environments.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	switch env {
	case "", "development", "test":
		return &RateLimiter{rdb: rdb, disabled: true}
	}
	return &RateLimiter{rdb: rdb}
}

// Allow spends one unit of lim for subject. The counter and its expiry are
// set in one MULTI so a crash cannot leave a key without a TTL.
func (l *RateLimiter) Allow(ctx context.Context, lim Limit, subject string) (Decision, error) {
	if l.disabled {
		return Decision{Allowed: true, Remaining: lim.Max}, nil
	}
	if l.rdb == nil {
		return Decision{}, errNoRedis
	}

	key := "rl:" + lim.Name + ":" + subject
	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		count = p.Incr(ctx, key)
		p.ExpireNX(ctx, key, lim.Window)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	used := int(count.Val())
	d := Decision{Allowed: used <= lim.Max, Remaining: lim.Max - used}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = ttl.Val()
		if d.RetryAfter <= 0 {
			d.RetryAfter = lim.Window
		}
	}
	return d, nil
}

// Middleware enforces lim per authenticated user, falling back to the client
// IP for anonymous requests.
func (l *RateLimiter) Middleware(lim Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(string); ok && uid != "" {
			subject = "user:" + uid
		}

		d, err := l.Allow(c.UserContext(), lim, subject)
		if err != nil {
			if !lim.FailClosed {
				return c.Next()
			}
			Logger.WarnContext(c.UserContext(), "rate limit unavailable, failing closed",
				slog.String("limit", lim.Name),
				slog.String("error", err.Error()),
			)
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewUnavailableError("Rate limit unavailable"))
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(lim.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(d.RetryAfter.Round(time.Second)/time.Second)))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later"))
		}
		return c.Next()
	}
}
