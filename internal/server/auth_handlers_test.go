package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"evcircle/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSetsCookieAndReturnsSession(t *testing.T) {
	env := newTestServer(t, "")

	resp := env.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    "Ada@EVCircle.test",
		"password": testPassword,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie should be set")
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	var session struct {
		Token   string         `json:"token"`
		User    models.User    `json:"user"`
		Profile models.Profile `json:"profile"`
	}
	decode(t, resp, &session)
	assert.Equal(t, "ada@evcircle.test", session.User.Email)
	assert.Equal(t, "ada", session.Profile.DisplayName)
	assert.Equal(t, models.RoleUser, session.User.Role)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestServer(t, "")

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing password", fiber.Map{"email": "a@evcircle.test"}},
		{"weak password", fiber.Map{"email": "a@evcircle.test", "password": "short"}},
		{"bad email", fiber.Map{"email": "nope", "password": testPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assertErrorCode(t, resp, fiber.StatusBadRequest, models.CodeValidation)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestServer(t, "")
	env.register(t, "grace")

	resp := env.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    "GRACE@evcircle.test",
		"password": testPassword,
	})
	assertErrorCode(t, resp, fiber.StatusBadRequest, models.CodeValidation)
}

func TestLoginAndMe(t *testing.T) {
	env := newTestServer(t, "")
	env.register(t, "linus")

	resp := env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "linus@evcircle.test",
		"password": "Wrong-Password1!",
	})
	assertErrorCode(t, resp, fiber.StatusUnauthorized, models.CodeUnauthorized)

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "linus@evcircle.test",
		"password": testPassword,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session struct {
		Token string `json:"token"`
	}
	decode(t, resp, &session)

	resp = env.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me struct {
		User    models.User    `json:"user"`
		Profile models.Profile `json:"profile"`
	}
	decode(t, resp, &me)
	assert.Equal(t, "linus@evcircle.test", me.User.Email)
	assert.Equal(t, "linus", me.Profile.DisplayName)
}

func TestMeAcceptsCookie(t *testing.T) {
	env := newTestServer(t, "")
	token, _ := env.register(t, "cookie")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthRequiredRejectsMissingAndInvalidTokens(t *testing.T) {
	env := newTestServer(t, "")

	resp := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assertErrorCode(t, resp, fiber.StatusUnauthorized, models.CodeUnauthorized)

	resp = env.do(t, http.MethodGet, "/api/feed", "not-a-jwt", nil)
	assertErrorCode(t, resp, fiber.StatusUnauthorized, models.CodeUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	r, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = r.Body.Close() }()
	assert.Equal(t, fiber.StatusUnauthorized, r.StatusCode)
}

func TestUnknownAPIPathsAreNotFound(t *testing.T) {
	env := newTestServer(t, "")

	for _, path := range []string{"/api/does-not-exist", "/api/users/me/garage", "/api/admin/unknown"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, path)
	}

	resp := env.do(t, http.MethodPost, "/api/posts", "", fiber.Map{"text": "hi"})
	assertErrorCode(t, resp, fiber.StatusUnauthorized, models.CodeUnauthorized)
	resp = env.do(t, http.MethodGet, "/api/admin/reports", "", nil)
	assertErrorCode(t, resp, fiber.StatusUnauthorized, models.CodeUnauthorized)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestServer(t, "")
	token, _ := env.register(t, "margaret")

	resp := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assertErrorCode(t, resp, fiber.StatusUnauthorized, models.CodeUnauthorized)
}

func TestSuspendedUsersAreReadOnly(t *testing.T) {
	env := newTestServer(t, "")
	token, id := env.register(t, "suspended")
	env.setStatus(t, id, models.StatusSuspended)

	resp := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/posts", token, fiber.Map{"text": "still here"})
	assertErrorCode(t, resp, fiber.StatusForbidden, models.CodeForbidden)

	resp = env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBannedUsersAreRefused(t *testing.T) {
	env := newTestServer(t, "")
	token, id := env.register(t, "banned")
	env.setStatus(t, id, models.StatusBanned)

	resp := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assertErrorCode(t, resp, fiber.StatusForbidden, models.CodeForbidden)
}

func TestTokenFromRequest(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(tokenFromRequest(c))
	})

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"cookie fallback", "", "xyz", "xyz"},
		{"header wins", "Bearer abc", "xyz", "abc"},
		{"other scheme", "Token abc", "xyz", ""},
		{"none", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			buf := make([]byte, 64)
			n, _ := resp.Body.Read(buf)
			assert.Equal(t, tt.want, string(buf[:n]))
		})
	}
}
