package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcircle/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiterAllow(t *testing.T) {
	search := Limit{Name: "search", Max: 2, Window: time.Minute}

	tests := []struct {
		name      string
		env       string
		noRedis   bool
		calls     int
		wantAllow bool
		wantErr   bool
	}{
		{name: "test env bypass", env: "test", noRedis: true, calls: 5, wantAllow: true},
		{name: "development env bypass", env: "development", noRedis: true, calls: 5, wantAllow: true},
		{name: "missing redis in production", env: "production", noRedis: true, calls: 1, wantErr: true},
		{name: "at the limit", env: "production", calls: 2, wantAllow: true},
		{name: "over the limit", env: "production", calls: 3, wantAllow: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rdb *redis.Client
			if !tt.noRedis {
				_, rdb = newTestRedis(t)
			}
			l := NewRateLimiter(rdb, tt.env)

			var d Decision
			var err error
			for i := 0; i < tt.calls; i++ {
				d, err = l.Allow(context.Background(), search, "ip:1")
			}
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, d.Allowed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllow, d.Allowed)
		})
	}
}

func TestRateLimiterWindowExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRateLimiter(rdb, "production")
	login := Limit{Name: "login", Max: 1, Window: time.Minute}
	ctx := context.Background()

	d, err := l.Allow(ctx, login, "ip:1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = l.Allow(ctx, login, "ip:1")
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	// Rejected requests must not push the window out.
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:1"))

	mr.FastForward(2 * time.Minute)
	d, err = l.Allow(ctx, login, "ip:1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimiterMiddleware(t *testing.T) {
	_, rdb := newTestRedis(t)
	live := NewRateLimiter(rdb, "production")
	down := NewRateLimiter(nil, "production")
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	app := fiber.New()
	app.Get("/limited", live.Middleware(Limit{Name: "limited", Max: 1, Window: time.Minute}), ok)
	app.Get("/closed", down.Middleware(Limit{Name: "closed", Max: 1, Window: time.Minute, FailClosed: true}), ok)
	app.Get("/open", down.Middleware(Limit{Name: "open", Max: 1, Window: time.Minute}), ok)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, models.CodeRateLimited, body.Code)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/closed", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
