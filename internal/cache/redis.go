// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"evcircle/internal/middleware"
	"evcircle/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

// instrumentation traces Redis commands and counts their failures. A cache
// miss (redis.Nil) is not a failure.
type instrumentation struct{}

func (instrumentation) DialHook(next redis.DialHook) redis.DialHook { return next }

func (instrumentation) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := observability.StartSpan(ctx, "redis."+cmd.Name(), trace.SpanKindClient,
			attribute.String("db.system", "redis"))
		err := next(ctx, cmd)
		observability.EndSpan(span, realFailure(err))
		if realFailure(err) != nil {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (instrumentation) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := observability.StartSpan(ctx, "redis.pipeline", trace.SpanKindClient,
			attribute.String("db.system", "redis"),
			attribute.Int("db.redis.commands", len(cmds)))
		err := next(ctx, cmds)
		observability.EndSpan(span, realFailure(err))
		if realFailure(err) != nil {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

func realFailure(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// parseAddr accepts either host:port or a redis:// URL.
func parseAddr(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	if addr == "" {
		return nil, errors.New("empty redis address")
	}
	return &redis.Options{Addr: addr}, nil
}

// Connect dials Redis and pings it once.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := parseAddr(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	c := redis.NewClient(opts)
	c.AddHook(instrumentation{})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// InitRedis connects the package client. On failure the client stays nil
// and the API runs without cache, rate limits or realtime delivery.
func InitRedis(addr string) {
	c, err := Connect(context.Background(), addr)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without cache", "error", err)
		client = nil
		return
	}
	middleware.Logger.Info("Redis connected", "addr", c.Options().Addr)
	client = c
}

// SetClient replaces the package client. Tests use it with miniredis.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(instrumentation{})
	}
	client = c
}

// GetClient returns the package client, nil when Redis is unavailable.
func GetClient() *redis.Client {
	return client
}
