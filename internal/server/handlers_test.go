package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"evcircle/internal/models"
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostLifecycle(t *testing.T) {
	env := newTestServer(t, "")
	alice, _ := env.register(t, "alice")
	bob, _ := env.register(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/posts", alice, fiber.Map{"text": "  Just hit 400 km on one charge  "})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var post models.Post
	decode(t, resp, &post)
	assert.Equal(t, "Just hit 400 km on one charge", post.Text)

	resp = env.do(t, http.MethodGet, "/api/posts/"+post.ID, "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/posts/"+post.ID+"/like", bob, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var liked struct {
		Post  models.Post `json:"post"`
		Liked bool        `json:"liked"`
	}
	decode(t, resp, &liked)
	assert.True(t, liked.Liked)
	assert.Len(t, liked.Post.Likes, 1)

	resp = env.do(t, http.MethodPost, "/api/posts/"+post.ID+"/comments", bob, fiber.Map{"text": "Which route?"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decode(t, resp, &comment)

	resp = env.do(t, http.MethodGet, "/api/posts/"+post.ID+"/comments", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var comments []models.Comment
	decode(t, resp, &comments)
	assert.Len(t, comments, 1)

	resp = env.do(t, http.MethodPut, "/api/posts/"+post.ID, bob, fiber.Map{"text": "hijacked"})
	assertErrorCode(t, resp, fiber.StatusForbidden, models.CodeForbidden)

	resp = env.do(t, http.MethodDelete, "/api/comments/"+comment.ID, bob, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/posts/"+post.ID, alice, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/posts/"+post.ID, "", nil)
	assertErrorCode(t, resp, fiber.StatusNotFound, models.CodeNotFound)
}

func TestListsAreNeverNull(t *testing.T) {
	env := newTestServer(t, "")

	for _, path := range []string{"/api/posts", "/api/communities", "/api/stations", "/api/questions", "/api/articles"} {
		t.Run(path, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, path, "", nil)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			var items []interface{}
			decode(t, resp, &items)
			assert.NotNil(t, items)
		})
	}
}

func TestCommunityMembership(t *testing.T) {
	env := newTestServer(t, "")
	owner, _ := env.register(t, "owner")
	member, _ := env.register(t, "member")

	resp := env.do(t, http.MethodPost, "/api/communities", owner, fiber.Map{
		"slug": "Tesla-Owners",
		"name": "Tesla Owners",
		"type": models.CommunityBrand,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var community models.Community
	decode(t, resp, &community)
	assert.Equal(t, "tesla-owners", community.Slug)
	assert.Equal(t, 1, community.MembersCount)

	resp = env.do(t, http.MethodPost, "/api/communities", member, fiber.Map{
		"slug": "tesla-owners",
		"name": "Copycat",
		"type": models.CommunityBrand,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/communities/"+community.ID+"/join", member, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/communities/tesla-owners", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &community)
	assert.Equal(t, 2, community.MembersCount)

	resp = env.do(t, http.MethodGet, "/api/communities/"+community.ID+"/members", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var members []models.CommunityMember
	decode(t, resp, &members)
	assert.Len(t, members, 2)

	resp = env.do(t, http.MethodPost, "/api/communities/"+community.ID+"/leave", member, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var left struct {
		Left bool `json:"left"`
	}
	decode(t, resp, &left)
	assert.True(t, left.Left)

	resp = env.do(t, http.MethodPost, "/api/communities/"+community.ID+"/leave", member, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &left)
	assert.False(t, left.Left)

	resp = env.do(t, http.MethodGet, "/api/communities/does-not-exist", "", nil)
	assertErrorCode(t, resp, fiber.StatusNotFound, models.CodeNotFound)
}

func TestFollowAndFeed(t *testing.T) {
	env := newTestServer(t, "")
	alice, aliceID := env.register(t, "alice")
	bob, bobID := env.register(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/users/"+bobID+"/follow", alice, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/posts", bob, fiber.Map{"text": "Installed a wallbox today"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/feed", alice, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var feed []models.Post
	decode(t, resp, &feed)
	require.Len(t, feed, 1)
	assert.Equal(t, bobID, feed[0].AuthorID)

	resp = env.do(t, http.MethodGet, "/api/users/"+bobID, alice, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var profile struct {
		Profile     models.Profile `json:"profile"`
		IsFollowing *bool          `json:"is_following"`
	}
	decode(t, resp, &profile)
	assert.Equal(t, 1, profile.Profile.FollowersCount)
	require.NotNil(t, profile.IsFollowing)
	assert.True(t, *profile.IsFollowing)

	resp = env.do(t, http.MethodGet, "/api/users/"+bobID, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	profile.IsFollowing = nil
	decode(t, resp, &profile)
	assert.Nil(t, profile.IsFollowing)

	resp = env.do(t, http.MethodPost, "/api/users/"+aliceID+"/follow", alice, nil)
	assertErrorCode(t, resp, fiber.StatusBadRequest, models.CodeValidation)

	resp = env.do(t, http.MethodPost, "/api/users/"+aliceID+"/block", bob, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/users/"+bobID+"/follow", alice, nil)
	assertErrorCode(t, resp, fiber.StatusForbidden, models.CodeForbidden)
}

func TestNotificationsOverHTTP(t *testing.T) {
	env := newTestServer(t, "")
	alice, _ := env.register(t, "alice")
	bob, bobID := env.register(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/users/"+bobID+"/follow", alice, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/notifications/unread-count", bob, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var count struct {
		Count int64 `json:"count"`
	}
	decode(t, resp, &count)
	assert.Equal(t, int64(1), count.Count)

	resp = env.do(t, http.MethodPost, "/api/notifications/read-all", bob, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/notifications/unread-count", bob, nil)
	decode(t, resp, &count)
	assert.Equal(t, int64(0), count.Count)
}

func TestDirectMessages(t *testing.T) {
	env := newTestServer(t, "")
	alice, _ := env.register(t, "alice")
	bob, bobID := env.register(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/conversations", alice, fiber.Map{"user_id": bobID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var conv models.Conversation
	decode(t, resp, &conv)

	resp = env.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", alice, fiber.Map{"text": "Is the charger free?"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/messages/unread-count", bob, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var count struct {
		Count int64 `json:"count"`
	}
	decode(t, resp, &count)
	assert.Equal(t, int64(1), count.Count)

	resp = env.do(t, http.MethodGet, "/api/conversations/"+conv.ID+"/messages", bob, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var msgs []models.Message
	decode(t, resp, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Is the charger free?", msgs[0].Text)

	outsider, _ := env.register(t, "eve")
	resp = env.do(t, http.MethodGet, "/api/conversations/"+conv.ID+"/messages", outsider, nil)
	assertErrorCode(t, resp, fiber.StatusNotFound, models.CodeNotFound)
}

func TestSearch(t *testing.T) {
	env := newTestServer(t, "")
	alice, _ := env.register(t, "alice")

	resp := env.do(t, http.MethodPost, "/api/posts", alice, fiber.Map{"text": "Preconditioning the battery before a supercharger stop"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/search?q=supercharger", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res storage.SearchResults
	decode(t, resp, &res)
	assert.Equal(t, "supercharger", res.Query)
	require.Len(t, res.Posts, 1)
	assert.Contains(t, res.Posts[0].Snippet, "supercharger")

	resp = env.do(t, http.MethodGet, "/api/search/suggest?q=%20%20", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var empty storage.SearchResults
	decode(t, resp, &empty)
	assert.NotNil(t, empty.Posts)
	assert.Empty(t, empty.Posts)
	assert.NotNil(t, empty.Users)
}

func TestSearchNeverExposesEmails(t *testing.T) {
	env := newTestServer(t, "")
	env.register(t, "alice")
	env.register(t, "bob")

	for _, path := range []string{"/api/search?q=evcircle.test", "/api/search/suggest?q=ali"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var res storage.SearchResults
		require.NoError(t, json.Unmarshal(raw, &res))
		assert.NotEmpty(t, res.Users, path)
		assert.NotContains(t, string(raw), "@evcircle.test", path)
		assert.NotContains(t, string(raw), `"email"`, path)
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})

	tests := []struct {
		query  string
		limit  float64
		offset float64
	}{
		{"", 25, 0},
		{"?limit=10&offset=30", 10, 30},
		{"?limit=-5&offset=-1", 25, 0},
		{"?limit=5000", float64(storage.MaxPageSize), 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			decode(t, resp, &body)
			assert.Equal(t, tt.limit, body["limit"])
			assert.Equal(t, tt.offset, body["offset"])
		})
	}
}
