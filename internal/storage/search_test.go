package storage

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcircle/internal/models"
)

type stubSearchSource struct {
	calls       atomic.Int32
	communities []models.Community
	posts       []models.Post
	stations    []models.Station
	profiles    []models.Profile
	users       []models.User
	allProfiles []models.Profile
	err         error
}

func (s *stubSearchSource) SearchCommunities(_ context.Context, _ string, limit int) ([]models.Community, error) {
	s.calls.Add(1)
	return head(s.communities, limit), s.err
}

func (s *stubSearchSource) SearchPosts(_ context.Context, _ string, limit int) ([]models.Post, error) {
	s.calls.Add(1)
	return head(s.posts, limit), nil
}

func (s *stubSearchSource) SearchStations(_ context.Context, _ string, limit int) ([]models.Station, error) {
	s.calls.Add(1)
	return head(s.stations, limit), nil
}

func (s *stubSearchSource) SearchProfiles(_ context.Context, _ string, limit int) ([]models.Profile, error) {
	s.calls.Add(1)
	return head(s.profiles, limit), nil
}

func (s *stubSearchSource) SearchUsersByEmail(_ context.Context, _ string, limit int) ([]models.User, error) {
	s.calls.Add(1)
	return head(s.users, limit), nil
}

func (s *stubSearchSource) ListProfiles(_ context.Context, ids []string) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range s.allProfiles {
		for _, id := range ids {
			if p.UserID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func head[T any](in []T, n int) []T {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func TestSearch_BlankQuery(t *testing.T) {
	src := &stubSearchSource{}
	for _, q := range []string{"", "   ", "\t\n"} {
		res, err := Search(context.Background(), src, q, FullLimit)
		require.NoError(t, err)
		assert.Empty(t, res.Communities)
		assert.Empty(t, res.Posts)
		assert.Empty(t, res.Stations)
		assert.Empty(t, res.Users)
		assert.NotNil(t, res.Posts)
	}
	assert.Zero(t, src.calls.Load())
}

func TestSearch_MergesUsers(t *testing.T) {
	src := &stubSearchSource{
		profiles: []models.Profile{
			{UserID: "u1", DisplayName: "Tesla Tom"},
			{UserID: "u2", DisplayName: "Tesla Tina"},
		},
		users: []models.User{
			{ID: "u1", Email: "tom@tesla.example"},
			{ID: "u3", Email: "lee@tesla.example"},
		},
		allProfiles: []models.Profile{
			{UserID: "u1", DisplayName: "Tesla Tom"},
			{UserID: "u2", DisplayName: "Tesla Tina"},
			{UserID: "u3", DisplayName: "Leaf Lee"},
		},
	}

	res, err := Search(context.Background(), src, "tesla", FullLimit)
	require.NoError(t, err)
	require.Len(t, res.Users, 3)

	byID := map[string]UserHit{}
	for _, h := range res.Users {
		byID[h.UserID] = h
	}
	assert.Equal(t, UserHit{UserID: "u1", DisplayName: "Tesla Tom"}, byID["u1"])
	assert.Equal(t, UserHit{UserID: "u2", DisplayName: "Tesla Tina"}, byID["u2"])
	assert.Equal(t, UserHit{UserID: "u3", DisplayName: "Leaf Lee"}, byID["u3"])
}

func TestSearch_CapsPerCategory(t *testing.T) {
	src := &stubSearchSource{}
	for i := 0; i < 10; i++ {
		src.posts = append(src.posts, models.Post{Text: "charging tips"})
		src.communities = append(src.communities, models.Community{Name: "charging"})
	}
	res, err := Search(context.Background(), src, "charging", SuggestLimit)
	require.NoError(t, err)
	assert.Len(t, res.Posts, SuggestLimit)
	assert.Len(t, res.Communities, SuggestLimit)
	assert.Equal(t, "charging tips", res.Posts[0].Snippet)
}

func TestSearch_PropagatesErrors(t *testing.T) {
	src := &stubSearchSource{err: errors.New("backend down")}
	_, err := Search(context.Background(), src, "x", FullLimit)
	assert.Error(t, err)
}

func TestClampSearchLimit(t *testing.T) {
	assert.Equal(t, FullLimit, ClampSearchLimit(0))
	assert.Equal(t, 7, ClampSearchLimit(7))
	assert.Equal(t, MaxSearchLimit, ClampSearchLimit(500))
}

func TestSnippet(t *testing.T) {
	t.Run("short text returned whole", func(t *testing.T) {
		assert.Equal(t, "Love my Ioniq", Snippet("Love my Ioniq", "ioniq"))
	})

	t.Run("window starts 40 before match", func(t *testing.T) {
		text := strings.Repeat("a", 100) + "Supercharger" + strings.Repeat("b", 200)
		got := Snippet(text, "supercharger")
		assert.Len(t, []rune(got), 160)
		assert.True(t, strings.HasPrefix(got, strings.Repeat("a", 40)+"Supercharger"))
	})

	t.Run("match near end shortens window", func(t *testing.T) {
		text := strings.Repeat("x", 100) + "heat pump"
		got := Snippet(text, "HEAT")
		assert.Equal(t, strings.Repeat("x", 40)+"heat pump", got)
	})

	t.Run("missing term falls back to prefix", func(t *testing.T) {
		text := strings.Repeat("z", 300)
		assert.Equal(t, strings.Repeat("z", 160), Snippet(text, "nope"))
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		text := strings.Repeat("é", 60) + "Ladesäule"
		got := Snippet(text, "ladesäule")
		assert.Equal(t, strings.Repeat("é", 40)+"Ladesäule", got)
	})
}

func TestPageWindow(t *testing.T) {
	start, end := Page{Limit: 2, Offset: 1}.Window(5)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)

	start, end = Page{Offset: 10}.Window(5)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)

	assert.Equal(t, MaxPageSize, Page{Limit: 1000}.Normalize().Limit)
	assert.Equal(t, DefaultPageSize, Page{}.Normalize().Limit)
}

func TestToggleID(t *testing.T) {
	ids := ToggleID(nil, "a")
	assert.Equal(t, []string{"a"}, ids)
	ids = ToggleID(ids, "b")
	ids = ToggleID(ids, "a")
	assert.Equal(t, []string{"b"}, ids)
}
