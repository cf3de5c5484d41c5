package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"evcircle/internal/cache"
	"evcircle/internal/config"
	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/storage/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Charge-Point42!"

type testEnv struct {
	srv   *Server
	app   *fiber.App
	store *memory.Store
	mr    *miniredis.Miniredis
}

// newTestServer builds a server on the memory backend with Redis faked by
// miniredis. ocmURL may be empty when a test never calls the upstream.
func newTestServer(t *testing.T, ocmURL string) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	store := memory.New()
	srv, err := NewServer(&config.Config{
		Env:            "test",
		JWTSecret:      "test-secret-with-enough-entropy",
		AllowedOrigins: "http://localhost:5173",
		OCMBaseURL:     ocmURL,
	}, store, rdb)
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.App(), store: store, mr: mr}
}

// do sends a JSON request and returns the response. body may be nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// register creates an account through the API and returns its token and id.
func (e *testEnv) register(t *testing.T, name string) (string, string) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":        name + "@evcircle.test",
		"password":     testPassword,
		"display_name": name,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var session struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, resp, &session)
	require.NotEmpty(t, session.Token)
	return session.Token, session.User.ID
}

func (e *testEnv) setRole(t *testing.T, userID string, role models.UserRole) {
	t.Helper()
	_, err := e.store.UpdateUser(context.Background(), userID, storage.UserPatch{Role: &role})
	require.NoError(t, err)
}

func (e *testEnv) setStatus(t *testing.T, userID string, status models.UserStatus) {
	t.Helper()
	_, err := e.store.UpdateUser(context.Background(), userID, storage.UserPatch{Status: &status})
	require.NoError(t, err)
}

func assertErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	assert.Equal(t, status, resp.StatusCode)
	var body models.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, code, body.Code)
}

func TestNewServerRequiresStore(t *testing.T) {
	_, err := NewServer(&config.Config{Env: "test"}, nil, nil)
	assert.Error(t, err)
}

func TestHealthChecks(t *testing.T) {
	env := newTestServer(t, "")

	resp := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "memory", body.Checks["backend"])
	assert.Equal(t, "healthy", body.Checks["redis"])
}

func TestReadinessReportsRedisOutage(t *testing.T) {
	env := newTestServer(t, "")
	env.mr.Close()

	resp := env.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "unhealthy", body.Checks["redis"])
}

func TestServerWithoutRedisSkipsRealtime(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	srv, err := NewServer(&config.Config{Env: "test", JWTSecret: "secret"}, memory.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, srv.hub)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unavailable", body.Checks["redis"])
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.ErrTeapot })
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("db exploded") })
	app.Get("/app", func(c *fiber.Ctx) error { return models.NewNotFoundError("Post", "p1") })

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/fiber", fiber.StatusTeapot, ""},
		{"/plain", fiber.StatusInternalServerError, models.CodeInternal},
		{"/app", fiber.StatusNotFound, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.status, resp.StatusCode)
			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, body.Error, "db exploded")
		})
	}
}

func TestCORSOriginFallbacks(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	tests := []struct {
		name        string
		origins     string
		origin      string
		allowOrigin string
		credentials string
	}{
		{"empty uses local frontends", "", "http://localhost:3000", "http://localhost:3000", "true"},
		{"wildcard drops credentials", "*", "https://anywhere.example", "*", ""},
		{"wildcard inside a list", "https://evcircle.example, *", "https://anywhere.example", "*", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewServer(&config.Config{Env: "test", JWTSecret: "secret", AllowedOrigins: tt.origins}, memory.New(), nil)
			require.NoError(t, err)

			var app *fiber.App
			require.NotPanics(t, func() { app = srv.App() })

			req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
			req.Header.Set("Origin", tt.origin)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.allowOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.credentials, resp.Header.Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	env := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
