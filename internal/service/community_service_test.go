package service

import (
	"context"
	"testing"
	"time"

	"evcircle/internal/cache"
	"evcircle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommunityJoinsCreatorAsOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", models.RoleUser)

	community, err := f.svc.Communities.CreateCommunity(ctx, owner, CreateCommunityInput{
		Slug: " Tesla-Owners ", Name: "Tesla Owners", Type: models.CommunityBrand,
	})
	require.NoError(t, err)
	assert.Equal(t, "tesla-owners", community.Slug)
	assert.Equal(t, 1, community.MembersCount)

	members, err := f.svc.Communities.Members(ctx, community.ID, pageAll)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.MemberRoleOwner, members[0].Role)

	_, err = f.svc.Communities.CreateCommunity(ctx, owner, CreateCommunityInput{Slug: "tesla-owners", Name: "Again"})
	assertCode(t, err, models.CodeValidation)
}

func TestCreateCommunityValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", models.RoleUser)

	bad := []CreateCommunityInput{
		{Slug: "a", Name: "Too short"},
		{Slug: "admin", Name: "Reserved"},
		{Slug: "fine-slug", Name: " "},
		{Slug: "fine-slug", Name: "Bad type", Type: "CLUB"},
	}
	for _, in := range bad {
		_, err := f.svc.Communities.CreateCommunity(ctx, owner, in)
		assertCode(t, err, models.CodeValidation)
	}
}

func TestJoinLeaveScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", models.RoleUser)
	member := f.user(t, "member", models.RoleUser)

	community, err := f.svc.Communities.CreateCommunity(ctx, owner, CreateCommunityInput{Slug: "kona-club", Name: "Kona"})
	require.NoError(t, err)

	m, err := f.svc.Communities.Join(ctx, member, community.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleMember, m.Role)
	_, err = f.svc.Communities.Join(ctx, member, community.ID)
	require.NoError(t, err)

	got, err := f.svc.Communities.GetCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MembersCount)

	left, err := f.svc.Communities.Leave(ctx, member, community.ID)
	require.NoError(t, err)
	assert.True(t, left)
	left, err = f.svc.Communities.Leave(ctx, member, community.ID)
	require.NoError(t, err)
	assert.False(t, left)

	_, err = f.svc.Communities.Leave(ctx, owner, community.ID)
	assertCode(t, err, models.CodeConflict)

	_, err = f.svc.Communities.Join(ctx, member, "missing")
	assertCode(t, err, models.CodeNotFound)
}

func TestCommunityBySlugIsCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	cache.SetClient(f.rdb)
	t.Cleanup(func() { cache.SetClient(nil) })
	ctx := context.Background()
	owner := f.user(t, "owner", models.RoleUser)
	member := f.user(t, "member", models.RoleUser)

	community, err := f.svc.Communities.CreateCommunity(ctx, owner, CreateCommunityInput{Slug: "id-buzz", Name: "ID. Buzz"})
	require.NoError(t, err)

	got, err := f.svc.Communities.GetBySlug(ctx, "ID-Buzz")
	require.NoError(t, err)
	assert.Equal(t, community.ID, got.ID)
	assert.True(t, f.mr.Exists(cache.CommunityKey("id-buzz")))

	_, err = f.svc.Communities.Join(ctx, member, community.ID)
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(cache.CommunityKey("id-buzz")))

	got, err = f.svc.Communities.GetBySlug(ctx, "id-buzz")
	require.NoError(t, err)
	assert.Equal(t, 2, got.MembersCount)

	f.mr.FastForward(cache.CommunityTTL + time.Second)
	_, err = f.svc.Communities.GetBySlug(ctx, "nope")
	assertCode(t, err, models.CodeNotFound)
}

func TestCommunityUpdateAndDeletePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", models.RoleUser)
	other := f.user(t, "other", models.RoleUser)
	admin := f.user(t, "admin", models.RoleAdmin)

	community, err := f.svc.Communities.CreateCommunity(ctx, owner, CreateCommunityInput{Slug: "e-golf", Name: "e-Golf"})
	require.NoError(t, err)

	name := "e-Golf Owners"
	_, err = f.svc.Communities.UpdateCommunity(ctx, other, community.ID, UpdateCommunityInput{Name: &name})
	assertCode(t, err, models.CodeForbidden)

	updated, err := f.svc.Communities.UpdateCommunity(ctx, owner, community.ID, UpdateCommunityInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	assertCode(t, f.svc.Communities.DeleteCommunity(ctx, other, community.ID), models.CodeForbidden)
	require.NoError(t, f.svc.Communities.DeleteCommunity(ctx, admin, community.ID))
	_, err = f.svc.Communities.GetCommunity(ctx, community.ID)
	assertCode(t, err, models.CodeNotFound)
}
