package seed

import (
	"context"
	"strings"
	"testing"

	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func smallOptions() Options {
	return Options{NumUsers: 6, NumPosts: 10, NumStations: 4, NumQuestions: 3, Seed: 42}
}

func TestRunPopulatesEveryArea(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	sum, err := New(store, smallOptions()).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, len(communities), sum.Communities)
	assert.Equal(t, 10, sum.Posts)
	assert.Equal(t, 4, sum.Stations)
	assert.Equal(t, 3, sum.Questions)
	assert.Equal(t, len(articles), sum.Articles)
	assert.Equal(t, 9, sum.Messages)

	posts, err := store.ListPosts(ctx, storage.PostFilter{Page: storage.Page{Limit: storage.MaxPageSize}})
	require.NoError(t, err)
	assert.Len(t, posts, 10)

	stations, err := store.ListStations(ctx, storage.StationFilter{})
	require.NoError(t, err)
	assert.Len(t, stations, 4)
	for _, st := range stations {
		assert.NotEmpty(t, st.Connectors)
	}
}

func TestRunCreatesStaffAccounts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := New(store, smallOptions()).Run(ctx)
	require.NoError(t, err)

	admin, err := store.GetUserByEmail(ctx, AdminEmail)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(DefaultPassword)))

	mod, err := store.GetUserByEmail(ctx, ModeratorEmail)
	require.NoError(t, err)
	require.NotNil(t, mod)
	assert.Equal(t, models.RoleModerator, mod.Role)

	profile, err := store.GetProfile(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Ada Admin", profile.DisplayName)

	// Articles are written by the moderator account.
	list, err := store.ListArticles(ctx, storage.ArticleFilter{AuthorID: mod.ID})
	require.NoError(t, err)
	assert.Len(t, list, len(articles))
}

func TestCommunitiesKeepMemberCounts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := New(store, smallOptions()).Run(ctx)
	require.NoError(t, err)

	for _, c := range communities {
		community, err := store.GetCommunityBySlug(ctx, c.Slug)
		require.NoError(t, err)
		require.NotNil(t, community, c.Slug)

		members, err := store.ListCommunityMembers(ctx, community.ID, storage.Page{Limit: storage.MaxPageSize})
		require.NoError(t, err)
		assert.Equal(t, len(members), community.MembersCount, c.Slug)
		assert.GreaterOrEqual(t, community.MembersCount, 1)
	}
}

func TestSeedIsReproducible(t *testing.T) {
	ctx := context.Background()
	a, b := memory.New(), memory.New()

	_, err := New(a, smallOptions()).Run(ctx)
	require.NoError(t, err)
	_, err = New(b, smallOptions()).Run(ctx)
	require.NoError(t, err)

	ua, err := a.ListUsers(ctx, storage.Page{Limit: storage.MaxPageSize})
	require.NoError(t, err)
	ub, err := b.ListUsers(ctx, storage.Page{Limit: storage.MaxPageSize})
	require.NoError(t, err)
	require.Len(t, ub, len(ua))

	emails := func(users []models.User) map[string]bool {
		out := make(map[string]bool, len(users))
		for _, u := range users {
			out[u.Email] = true
		}
		return out
	}
	assert.Equal(t, emails(ua), emails(ub))
}

func TestConnectorsAreDistinct(t *testing.T) {
	s := New(memory.New(), smallOptions())
	for i := 0; i < 20; i++ {
		got := s.connectors()
		seen := map[string]bool{}
		for _, c := range got {
			assert.False(t, seen[c], "duplicate connector %q", c)
			seen[c] = true
		}
	}
}

func TestParseCatalog(t *testing.T) {
	assert.NotEmpty(t, vehicles)
	assert.Len(t, cities, 8)
	for _, tmpl := range postTemplates {
		assert.Equal(t, 2, strings.Count(strings.ReplaceAll(tmpl, "%%", ""), "%s"), tmpl)
	}

	_, err := parseCatalog([]byte("communities:\n  - {slug: x, name: X, type: FLEET}\n"))
	assert.ErrorContains(t, err, "unknown type")

	_, err = parseCatalog([]byte("vehicles: [Zoe]\n"))
	assert.ErrorContains(t, err, "missing")

	_, err = parseCatalog([]byte("vehicles: {"))
	assert.ErrorContains(t, err, "parse catalog")
}
