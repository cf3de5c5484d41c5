package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerAddsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "development", "")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = WithUserID(ctx, "user-9")
	logger.With("component", "test").InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "user_id=user-9")
	assert.Contains(t, out, "component=test")
	assert.NotContains(t, out, "trace_id")
}

func TestNewLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "warn")
	logger.Info("skipped")
	logger.Warn("kept", "station", "ocm-1")

	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"station":"ocm-1"`)
}

func TestRequestContextPropagatesRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "rid-42")
		return c.Next()
	})
	app.Use(RequestContext())

	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got, _ = c.UserContext().Value(RequestIDKey).(string)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "rid-42", got)
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		err    error
		want   slog.Level
	}{
		{"ok", "/api/posts", 200, nil, slog.LevelInfo},
		{"health probe", "/health/live", 200, nil, slog.LevelDebug},
		{"metrics scrape", "/metrics", 200, nil, slog.LevelDebug},
		{"client error", "/api/posts/x", 404, nil, slog.LevelWarn},
		{"fiber client error", "/api/posts", 400, fiber.ErrBadRequest, slog.LevelWarn},
		{"server error", "/api/stations/nearby", 502, nil, slog.LevelError},
		{"unhandled error", "/api/posts", 200, errors.New("boom"), slog.LevelError},
		{"failing probe", "/health/ready", 503, nil, slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, requestLevel(tt.path, tt.status, tt.err))
		})
	}
}

func TestStructuredLoggerUsesFiberErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = NewLogger(&buf, "test", "debug")
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/gone", func(c *fiber.Ctx) error { return fiber.ErrGone })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/gone", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "status=410")
}
