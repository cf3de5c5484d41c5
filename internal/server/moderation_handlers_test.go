package server

import (
	"net/http"
	"testing"

	"evcircle/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutesRequireModerator(t *testing.T) {
	env := newTestServer(t, "")
	user, _ := env.register(t, "regular")

	for _, path := range []string{"/api/admin/reports", "/api/admin/audit-logs"} {
		resp := env.do(t, http.MethodGet, path, user, nil)
		assertErrorCode(t, resp, fiber.StatusForbidden, models.CodeForbidden)
	}

	resp := env.do(t, http.MethodGet, "/api/admin/reports", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestReportReviewFlow(t *testing.T) {
	env := newTestServer(t, "")
	author, _ := env.register(t, "author")
	reporter, _ := env.register(t, "reporter")
	mod, modID := env.register(t, "moderator")
	env.setRole(t, modID, models.RoleModerator)

	resp := env.do(t, http.MethodPost, "/api/posts", author, fiber.Map{"text": "Buy cheap charging cables at spam.example"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var post models.Post
	decode(t, resp, &post)

	resp = env.do(t, http.MethodPost, "/api/reports", reporter, fiber.Map{"kind": "post", "id": post.ID, "reason": "spam"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var report models.Report
	decode(t, resp, &report)
	assert.Equal(t, models.ReportOpen, report.Status)

	resp = env.do(t, http.MethodPost, "/api/reports", reporter, fiber.Map{"kind": "station", "id": "s1", "reason": "spam"})
	assertErrorCode(t, resp, fiber.StatusBadRequest, models.CodeValidation)

	resp = env.do(t, http.MethodGet, "/api/admin/reports?status=open", mod, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var open []models.Report
	decode(t, resp, &open)
	require.Len(t, open, 1)

	resp = env.do(t, http.MethodPut, "/api/admin/reports/"+report.ID, mod, fiber.Map{"status": "resolved", "resolution": "removed"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &report)
	assert.Equal(t, models.ReportResolved, report.Status)

	resp = env.do(t, http.MethodDelete, "/api/posts/"+post.ID, mod, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/audit-logs?actor_id="+modID, mod, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var logs []models.AuditLog
	decode(t, resp, &logs)
	assert.NotEmpty(t, logs)
	for _, entry := range logs {
		assert.Equal(t, modID, entry.ActorID)
	}
}

func TestRoleAndStatusNeedAdmin(t *testing.T) {
	env := newTestServer(t, "")
	_, userID := env.register(t, "driver")
	mod, modID := env.register(t, "moderator")
	admin, adminID := env.register(t, "admin")
	env.setRole(t, modID, models.RoleModerator)
	env.setRole(t, adminID, models.RoleAdmin)

	resp := env.do(t, http.MethodPut, "/api/admin/users/"+userID+"/role", mod, fiber.Map{"role": "moderator"})
	assertErrorCode(t, resp, fiber.StatusForbidden, models.CodeForbidden)

	resp = env.do(t, http.MethodPut, "/api/admin/users/"+userID+"/role", admin, fiber.Map{"role": "moderator"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var user models.User
	decode(t, resp, &user)
	assert.Equal(t, models.RoleModerator, user.Role)

	resp = env.do(t, http.MethodPut, "/api/admin/users/"+userID+"/status", admin, fiber.Map{"status": "banned", "reason": "fraud"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &user)
	assert.Equal(t, models.StatusBanned, user.Status)

	resp = env.do(t, http.MethodPost, "/api/admin/recount", mod, nil)
	assertErrorCode(t, resp, fiber.StatusForbidden, models.CodeForbidden)

	resp = env.do(t, http.MethodPost, "/api/admin/recount", admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "memory", body["backend"])
}

func TestArticlesArePublishedByModerators(t *testing.T) {
	env := newTestServer(t, "")
	user, _ := env.register(t, "reader")
	mod, modID := env.register(t, "editor")
	env.setRole(t, modID, models.RoleModerator)

	article := fiber.Map{
		"kind":  "tip",
		"title": "Keep the battery between 20 and 80 percent",
		"body":  "Daily charging to 80 percent reduces degradation.",
		"tags":  []string{"Battery"},
	}

	resp := env.do(t, http.MethodPost, "/api/articles", user, article)
	assertErrorCode(t, resp, fiber.StatusForbidden, models.CodeForbidden)

	resp = env.do(t, http.MethodPost, "/api/articles", mod, article)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/articles?kind=tip&tag=battery", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var articles []models.Article
	decode(t, resp, &articles)
	assert.Len(t, articles, 1)
}
