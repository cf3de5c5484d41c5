// Package storagetest holds the behavioural suite every storage backend must
// pass.
package storagetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

// Factory returns a fresh, empty backend for one subtest.
type Factory func(t *testing.T) storage.Storage

// Run executes the suite against backends produced by newStore.
func Run(t *testing.T, newStore Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"Users", testUsers},
		{"Profiles", testProfiles},
		{"PostsAndLikes", testPostsAndLikes},
		{"CommentCounters", testCommentCounters},
		{"CommunityMembership", testCommunityMembership},
		{"TeslaOwnersScenario", testTeslaOwnersScenario},
		{"CommunityCascade", testCommunityCascade},
		{"StationsAndBookmarks", testStationsAndBookmarks},
		{"ForumCascade", testForumCascade},
		{"SolvedAnswer", testSolvedAnswer},
		{"Articles", testArticles},
		{"FollowAndBlock", testFollowAndBlock},
		{"Notifications", testNotifications},
		{"Conversations", testConversations},
		{"MessageReadReceipts", testMessageReadReceipts},
		{"Moderation", testModeration},
		{"Search", testSearch},
		{"RecountIsStable", testRecountIsStable},
		{"ConcurrentJoins", testConcurrentJoins},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close(context.Background()) })
			tc.fn(t, s)
		})
	}
}

// MustUser creates a user with a profile and returns its id.
func MustUser(t *testing.T, s storage.Storage, name string) string {
	t.Helper()
	ctx := context.Background()
	u, err := s.CreateUser(ctx, storage.NewUser{
		Email:        strings.ToLower(name) + "@evcircle.test",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	_, err = s.CreateProfile(ctx, storage.NewProfile{UserID: u.ID, DisplayName: name})
	require.NoError(t, err)
	return u.ID
}

func strp(v string) *string { return &v }

func testUsers(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	_, err := s.CreateUser(ctx, storage.NewUser{Email: "", PasswordHash: "x"})
	assert.True(t, models.IsCode(err, models.CodeValidation))
	_, err = s.CreateUser(ctx, storage.NewUser{Email: "a@b.c"})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	u, err := s.CreateUser(ctx, storage.NewUser{Email: "  Owner@Example.COM ", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "owner@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, models.StatusActive, u.Status)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.CreateUser(ctx, storage.NewUser{Email: "OWNER@example.com", PasswordHash: "h"})
	assert.True(t, models.IsCode(err, models.CodeValidation), "duplicate email must be a validation error, got %v", err)

	byEmail, err := s.GetUserByEmail(ctx, "owner@EXAMPLE.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	missing, err := s.GetUser(ctx, storage.NewID())
	require.NoError(t, err)
	assert.Nil(t, missing)

	role := models.RoleModerator
	updated, err := s.UpdateUser(ctx, u.ID, storage.UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, updated.Role)
	assert.Equal(t, "owner@example.com", updated.Email)

	none, err := s.UpdateUser(ctx, storage.NewID(), storage.UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Nil(t, none)

	other, err := s.CreateUser(ctx, storage.NewUser{Email: "other@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = s.UpdateUser(ctx, other.ID, storage.UserPatch{Email: strp("owner@example.com")})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	users, err := s.ListUsers(ctx, storage.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func testProfiles(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	id := MustUser(t, s, "Dana")

	p, err := s.GetProfile(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Dana", p.DisplayName)
	assert.Zero(t, p.FollowersCount)

	p, err = s.UpdateProfile(ctx, id, storage.ProfilePatch{Vehicle: strp("Kia EV6"), Bio: strp("road trips")})
	require.NoError(t, err)
	assert.Equal(t, "Kia EV6", p.Vehicle)
	assert.Equal(t, "Dana", p.DisplayName)

	p.DisplayName = "mutated"
	again, err := s.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dana", again.DisplayName, "callers must receive copies")

	missing, err := s.UpdateProfile(ctx, storage.NewID(), storage.ProfilePatch{Bio: strp("x")})
	require.NoError(t, err)
	assert.Nil(t, missing)

	other := MustUser(t, s, "Eli")
	list, err := s.ListProfiles(ctx, []string{id, other, storage.NewID()})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func testPostsAndLikes(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	author := MustUser(t, s, "Ann")
	fan := MustUser(t, s, "Ben")

	post, err := s.CreatePost(ctx, storage.NewPost{AuthorID: author, Text: "First road trip", Media: []string{"a.jpg"}})
	require.NoError(t, err)
	assert.Empty(t, post.Likes)
	assert.Equal(t, []string{"a.jpg"}, []string(post.Media))

	liked, err := s.TogglePostLike(ctx, post.ID, fan)
	require.NoError(t, err)
	assert.Equal(t, []string{fan}, []string(liked.Likes))
	assert.Zero(t, liked.CommentsCount)

	unliked, err := s.TogglePostLike(ctx, post.ID, fan)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)

	none, err := s.TogglePostLike(ctx, storage.NewID(), fan)
	require.NoError(t, err)
	assert.Nil(t, none)

	updated, err := s.UpdatePost(ctx, post.ID, storage.PostPatch{Text: strp("Edited")})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Text)
	assert.Equal(t, []string{"a.jpg"}, []string(updated.Media))

	_, err = s.CreatePost(ctx, storage.NewPost{AuthorID: fan, Text: "Hello"})
	require.NoError(t, err)

	mine, err := s.ListPosts(ctx, storage.PostFilter{AuthorID: author})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, post.ID, mine[0].ID)

	both, err := s.ListPosts(ctx, storage.PostFilter{AuthorIDs: []string{author, fan}})
	require.NoError(t, err)
	assert.Len(t, both, 2)

	deleted, err := s.DeletePost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.DeletePost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testCommentCounters(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	author := MustUser(t, s, "Cal")
	post, err := s.CreatePost(ctx, storage.NewPost{AuthorID: author, Text: "Winter range"})
	require.NoError(t, err)

	c, err := s.CreateComment(ctx, storage.NewComment{PostID: post.ID, AuthorID: author, Text: "-20C here"})
	require.NoError(t, err)
	got, _ := s.GetPost(ctx, post.ID)
	assert.Equal(t, 1, got.CommentsCount)

	ok, err := s.DeleteComment(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ = s.GetPost(ctx, post.ID)
	assert.Equal(t, 0, got.CommentsCount)

	ok, err = s.DeleteComment(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	got, _ = s.GetPost(ctx, post.ID)
	assert.Equal(t, 0, got.CommentsCount)

	orphan, err := s.CreateComment(ctx, storage.NewComment{PostID: storage.NewID(), AuthorID: author, Text: "x"})
	require.NoError(t, err)
	assert.Nil(t, orphan)

	c2, err := s.CreateComment(ctx, storage.NewComment{PostID: post.ID, AuthorID: author, Text: "again"})
	require.NoError(t, err)
	_, err = s.DeletePost(ctx, post.ID)
	require.NoError(t, err)
	gone, err := s.GetComment(ctx, c2.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testCommunityMembership(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	creator := MustUser(t, s, "Cora")
	member := MustUser(t, s, "Milo")

	c, err := s.CreateCommunity(ctx, storage.NewCommunity{Slug: "Ioniq-5", Name: "Ioniq 5", Type: models.CommunityModel, CreatorID: creator})
	require.NoError(t, err)
	assert.Equal(t, "ioniq-5", c.Slug)

	_, err = s.CreateCommunity(ctx, storage.NewCommunity{Slug: "ioniq-5", Name: "Dup", CreatorID: member})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	bySlug, err := s.GetCommunityBySlug(ctx, "IONIQ-5")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, c.ID, bySlug.ID)

	owner, err := s.JoinCommunity(ctx, c.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleOwner, owner.Role)

	m1, err := s.JoinCommunity(ctx, c.ID, member)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleMember, m1.Role)
	got, _ := s.GetCommunity(ctx, c.ID)
	assert.Equal(t, 2, got.MembersCount)

	m2, err := s.JoinCommunity(ctx, c.ID, member)
	require.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)
	got, _ = s.GetCommunity(ctx, c.ID)
	assert.Equal(t, 2, got.MembersCount, "second join must not increment")

	isMember, err := s.IsCommunityMember(ctx, c.ID, member)
	require.NoError(t, err)
	assert.True(t, isMember)

	left, err := s.LeaveCommunity(ctx, c.ID, member)
	require.NoError(t, err)
	assert.True(t, left)
	got, _ = s.GetCommunity(ctx, c.ID)
	assert.Equal(t, 1, got.MembersCount)

	none, err := s.JoinCommunity(ctx, storage.NewID(), member)
	require.NoError(t, err)
	assert.Nil(t, none)

	members, err := s.ListCommunityMembers(ctx, c.ID, storage.Page{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, creator, members[0].UserID)

	mine, err := s.ListUserCommunities(ctx, creator)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, c.ID, mine[0].ID)

	typ := models.CommunityBrand
	updated, err := s.UpdateCommunity(ctx, c.ID, storage.CommunityPatch{Type: &typ, Description: strp("Hyundai E-GMP")})
	require.NoError(t, err)
	assert.Equal(t, models.CommunityBrand, updated.Type)
	assert.Equal(t, "Ioniq 5", updated.Name)

	brands, err := s.ListCommunities(ctx, storage.CommunityFilter{Type: models.CommunityBrand})
	require.NoError(t, err)
	assert.Len(t, brands, 1)
}

func testTeslaOwnersScenario(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	creator := MustUser(t, s, "Founder")
	a := MustUser(t, s, "Alex")

	c, err := s.CreateCommunity(ctx, storage.NewCommunity{Slug: "tesla-owners", Name: "Tesla Owners", Type: models.CommunityBrand, CreatorID: creator})
	require.NoError(t, err)

	steps := []struct {
		join bool
		want int
	}{
		{join: true, want: 1},
		{join: true, want: 1},
		{join: false, want: 0},
	}
	for _, step := range steps {
		if step.join {
			_, err = s.JoinCommunity(ctx, c.ID, a)
		} else {
			_, err = s.LeaveCommunity(ctx, c.ID, a)
		}
		require.NoError(t, err)
		got, _ := s.GetCommunity(ctx, c.ID)
		assert.Equal(t, step.want, got.MembersCount)
	}

	left, err := s.LeaveCommunity(ctx, c.ID, a)
	require.NoError(t, err)
	assert.False(t, left)
	got, _ := s.GetCommunity(ctx, c.ID)
	assert.Equal(t, 0, got.MembersCount)
}

func testCommunityCascade(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := MustUser(t, s, "Gus")
	c, err := s.CreateCommunity(ctx, storage.NewCommunity{Slug: "nordics", Name: "Nordics", Type: models.CommunityRegion, CreatorID: u})
	require.NoError(t, err)
	_, err = s.JoinCommunity(ctx, c.ID, u)
	require.NoError(t, err)

	ok, err := s.DeleteCommunity(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	isMember, err := s.IsCommunityMember(ctx, c.ID, u)
	require.NoError(t, err)
	assert.False(t, isMember)

	again, err := s.CreateCommunity(ctx, storage.NewCommunity{Slug: "nordics", Name: "Nordics 2", CreatorID: u})
	require.NoError(t, err, "slug is free after delete")
	assert.NotEqual(t, c.ID, again.ID)
}

func testStationsAndBookmarks(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := MustUser(t, s, "Hana")
	v := MustUser(t, s, "Ivo")

	st, err := s.CreateStation(ctx, storage.NewStation{
		Name: "Harbour Hub", Address: "1 Quay St", Latitude: 59.91, Longitude: 10.75,
		Connectors: []string{"CCS", "Type 2"}, Network: "Ionity", PowerKW: 350, AddedBy: u,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CCS", "Type 2"}, []string(st.Connectors))

	target := models.NewTarget(models.TargetStation, st.ID)
	b1, err := s.CreateBookmark(ctx, u, target)
	require.NoError(t, err)
	b2, err := s.CreateBookmark(ctx, u, target)
	require.NoError(t, err)
	assert.Equal(t, b1.ID, b2.ID, "bookmark is unique per user and target")

	_, err = s.CreateBookmark(ctx, v, target)
	require.NoError(t, err)
	got, _ := s.GetStation(ctx, st.ID)
	assert.Equal(t, 2, got.BookmarksCount)

	marked, err := s.IsBookmarked(ctx, u, target)
	require.NoError(t, err)
	assert.True(t, marked)

	list, err := s.ListBookmarks(ctx, u, models.TargetStation)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = s.ListBookmarks(ctx, u, models.TargetPost)
	require.NoError(t, err)
	assert.Empty(t, list)

	ok, err := s.DeleteBookmark(ctx, b1.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ = s.GetStation(ctx, st.ID)
	assert.Equal(t, 1, got.BookmarksCount)

	ok, err = s.DeleteBookmarkByTarget(ctx, u, target)
	require.NoError(t, err)
	assert.False(t, ok)

	ccs, err := s.ListStations(ctx, storage.StationFilter{Connector: "ccs"})
	require.NoError(t, err)
	assert.Len(t, ccs, 1)
	chademo, err := s.ListStations(ctx, storage.StationFilter{Connector: "CHAdeMO"})
	require.NoError(t, err)
	assert.Empty(t, chademo)

	power := 150.0
	updated, err := s.UpdateStation(ctx, st.ID, storage.StationPatch{PowerKW: &power})
	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.PowerKW)
	assert.Equal(t, "Harbour Hub", updated.Name)

	ok, err = s.DeleteStation(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	marked, err = s.IsBookmarked(ctx, v, target)
	require.NoError(t, err)
	assert.False(t, marked, "station delete cascades bookmarks")
}

func testForumCascade(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := MustUser(t, s, "Jo")
	q, err := s.CreateQuestion(ctx, storage.NewQuestion{AuthorID: u, Title: "Heat pump worth it?", Tags: []string{"Winter"}})
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 3; i++ {
		a, err := s.CreateAnswer(ctx, storage.NewAnswer{QuestionID: q.ID, AuthorID: u, Body: fmt.Sprintf("answer %d", i)})
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}
	got, _ := s.GetQuestion(ctx, q.ID)
	assert.Equal(t, 3, got.AnswersCount)

	answers, err := s.ListAnswers(ctx, q.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 3)

	upvoted, err := s.ToggleQuestionUpvote(ctx, q.ID, u)
	require.NoError(t, err)
	assert.Equal(t, []string{u}, []string(upvoted.Upvotes))
	aUp, err := s.ToggleAnswerUpvote(ctx, ids[0], u)
	require.NoError(t, err)
	assert.Len(t, aUp.Upvotes, 1)

	tagged, err := s.ListQuestions(ctx, storage.QuestionFilter{Tag: "winter"})
	require.NoError(t, err)
	assert.Len(t, tagged, 1)

	ok, err := s.DeleteQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	for _, id := range ids {
		a, err := s.GetAnswer(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, a)
	}
	left, err := s.ListAnswers(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func testSolvedAnswer(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := MustUser(t, s, "Kai")
	q, err := s.CreateQuestion(ctx, storage.NewQuestion{AuthorID: u, Title: "Best home charger?"})
	require.NoError(t, err)
	other, err := s.CreateQuestion(ctx, storage.NewQuestion{AuthorID: u, Title: "Other"})
	require.NoError(t, err)
	a, err := s.CreateAnswer(ctx, storage.NewAnswer{QuestionID: q.ID, AuthorID: u, Body: "Zappi"})
	require.NoError(t, err)

	wrong, err := s.MarkQuestionSolved(ctx, other.ID, &a.ID)
	require.NoError(t, err)
	assert.Nil(t, wrong, "answer must belong to the question")

	solved, err := s.MarkQuestionSolved(ctx, q.ID, &a.ID)
	require.NoError(t, err)
	require.NotNil(t, solved.SolvedAnswerID)
	assert.Equal(t, a.ID, *solved.SolvedAnswerID)

	yes := true
	list, err := s.ListQuestions(ctx, storage.QuestionFilter{Solved: &yes})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q.ID, list[0].ID)

	ok, err := s.DeleteAnswer(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ := s.GetQuestion(ctx, q.ID)
	assert.Nil(t, got.SolvedAnswerID)
	assert.Equal(t, 0, got.AnswersCount)

	a2, err := s.CreateAnswer(ctx, storage.NewAnswer{QuestionID: q.ID, AuthorID: u, Body: "Wallbox"})
	require.NoError(t, err)
	_, err = s.MarkQuestionSolved(ctx, q.ID, &a2.ID)
	require.NoError(t, err)
	cleared, err := s.MarkQuestionSolved(ctx, q.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.SolvedAnswerID)
}

func testArticles(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mod := MustUser(t, s, "Lena")
	reader := MustUser(t, s, "Max")

	a, err := s.CreateArticle(ctx, storage.NewArticle{AuthorID: mod, Kind: models.ArticleTip, Title: "Precondition your battery", Body: "...", Tags: []string{"winter"}})
	require.NoError(t, err)

	liked, err := s.ToggleArticleLike(ctx, a.ID, reader)
	require.NoError(t, err)
	assert.Equal(t, []string{reader}, []string(liked.Likes))
	liked, err = s.ToggleArticleLike(ctx, a.ID, reader)
	require.NoError(t, err)
	assert.Empty(t, liked.Likes)

	c, err := s.CreateArticleComment(ctx, storage.NewArticleComment{ArticleID: a.ID, AuthorID: reader, Text: "Thanks"})
	require.NoError(t, err)
	got, _ := s.GetArticle(ctx, a.ID)
	assert.Equal(t, 1, got.CommentsCount)

	ok, err := s.DeleteArticleComment(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ = s.GetArticle(ctx, a.ID)
	assert.Equal(t, 0, got.CommentsCount)

	tips, err := s.ListArticles(ctx, storage.ArticleFilter{Kind: models.ArticleTip})
	require.NoError(t, err)
	assert.Len(t, tips, 1)
	news, err := s.ListArticles(ctx, storage.ArticleFilter{Kind: models.ArticleNews})
	require.NoError(t, err)
	assert.Empty(t, news)

	kind := models.ArticleKnowledge
	updated, err := s.UpdateArticle(ctx, a.ID, storage.ArticlePatch{Kind: &kind})
	require.NoError(t, err)
	assert.Equal(t, models.ArticleKnowledge, updated.Kind)

	c2, err := s.CreateArticleComment(ctx, storage.NewArticleComment{ArticleID: a.ID, AuthorID: reader, Text: "More"})
	require.NoError(t, err)
	ok, err = s.DeleteArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	gone, err := s.GetArticleComment(ctx, c2.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testFollowAndBlock(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := MustUser(t, s, "Nia")
	b := MustUser(t, s, "Oli")

	_, err := s.FollowUser(ctx, a, b)
	require.NoError(t, err)
	_, err = s.FollowUser(ctx, a, b)
	require.NoError(t, err)
	_, err = s.FollowUser(ctx, b, a)
	require.NoError(t, err)

	pa, _ := s.GetProfile(ctx, a)
	pb, _ := s.GetProfile(ctx, b)
	assert.Equal(t, 1, pa.FollowingCount)
	assert.Equal(t, 1, pa.FollowersCount)
	assert.Equal(t, 1, pb.FollowersCount)
	assert.Equal(t, 1, pb.FollowingCount)

	followers, err := s.ListFollowers(ctx, b, storage.Page{})
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, a, followers[0].FollowerID)

	_, err = s.BlockUser(ctx, b, a)
	require.NoError(t, err)

	following, err := s.IsFollowing(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, following)
	following, err = s.IsFollowing(ctx, b, a)
	require.NoError(t, err)
	assert.False(t, following)

	pa, _ = s.GetProfile(ctx, a)
	pb, _ = s.GetProfile(ctx, b)
	assert.Equal(t, 0, pa.FollowingCount)
	assert.Equal(t, 0, pa.FollowersCount)
	assert.Equal(t, 0, pb.FollowersCount)
	assert.Equal(t, 0, pb.FollowingCount)

	blocked, err := s.IsBlocked(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, blocked, "block is visible in either direction")

	_, err = s.BlockUser(ctx, b, a)
	require.NoError(t, err)
	list, err := s.ListBlocked(ctx, b)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	ok, err := s.UnblockUser(ctx, b, a)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.UnblockUser(ctx, b, a)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.UnfollowUser(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)
	pb, _ = s.GetProfile(ctx, b)
	assert.Equal(t, 0, pb.FollowersCount)
}

func testNotifications(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := MustUser(t, s, "Pia")
	actor := MustUser(t, s, "Quin")

	n1, err := s.CreateNotification(ctx, storage.NewNotification{UserID: u, ActorID: actor, Type: models.NotifyFollow, Target: models.NewTarget(models.TargetUser, actor), Message: "followed you"})
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, storage.NewNotification{UserID: u, ActorID: actor, Type: models.NotifyPostLike, Message: "liked"})
	require.NoError(t, err)

	count, err := s.CountUnreadNotifications(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	other, err := s.MarkNotificationRead(ctx, n1.ID, actor)
	require.NoError(t, err)
	assert.Nil(t, other, "only the owner can mark a notification read")

	read, err := s.MarkNotificationRead(ctx, n1.ID, u)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err := s.ListNotifications(ctx, u, true, storage.Page{})
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	n, err := s.MarkAllNotificationsRead(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	count, _ = s.CountUnreadNotifications(ctx, u)
	assert.Zero(t, count)

	all, err := s.ListNotifications(ctx, u, false, storage.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testConversations(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := MustUser(t, s, "Rae")
	b := MustUser(t, s, "Sam")

	c1, err := s.GetOrCreateConversation(ctx, a, b)
	require.NoError(t, err)
	c2, err := s.GetOrCreateConversation(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)
	assert.True(t, c1.ParticipantAID < c1.ParticipantBID)
	assert.Nil(t, c1.LastMessageAt)

	m, err := s.CreateMessage(ctx, storage.NewMessage{ConversationID: c1.ID, SenderID: a, Text: "Charging at 6?"})
	require.NoError(t, err)
	assert.False(t, m.IsRead)

	conv, err := s.GetConversation(ctx, c1.ID)
	require.NoError(t, err)
	assert.NotNil(t, conv.LastMessageAt)

	list, err := s.ListConversations(ctx, b)
	require.NoError(t, err)
	require.Len(t, list, 1)

	msgs, err := s.ListMessages(ctx, c1.ID, storage.Page{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Charging at 6?", msgs[0].Text)

	none, err := s.CreateMessage(ctx, storage.NewMessage{ConversationID: storage.NewID(), SenderID: a, Text: "x"})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func testMessageReadReceipts(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := MustUser(t, s, "Tia")
	b := MustUser(t, s, "Uma")
	c, err := s.GetOrCreateConversation(ctx, a, b)
	require.NoError(t, err)
	m, err := s.CreateMessage(ctx, storage.NewMessage{ConversationID: c.ID, SenderID: a, Text: "hi"})
	require.NoError(t, err)

	count, err := s.GetUnreadMessageCount(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = s.GetUnreadMessageCount(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	bySender, err := s.MarkMessageRead(ctx, c.ID, m.ID, a)
	require.NoError(t, err)
	require.NotNil(t, bySender)
	assert.False(t, bySender.IsRead, "sender cannot mark own message read")
	assert.Nil(t, bySender.ReadAt)

	elsewhere, err := s.MarkMessageRead(ctx, storage.NewID(), m.ID, b)
	require.NoError(t, err)
	assert.Nil(t, elsewhere)

	read, err := s.MarkMessageRead(ctx, c.ID, m.ID, b)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	count, err = s.GetUnreadMessageCount(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func testModeration(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	reporter := MustUser(t, s, "Vik")
	mod := MustUser(t, s, "Wes")
	target := models.NewTarget(models.TargetUser, reporter)

	r, err := s.CreateReport(ctx, storage.NewReport{ReporterID: reporter, Target: target, Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportOpen, r.Status)
	assert.Equal(t, target, r.Target)

	status := models.ReportResolved
	updated, err := s.UpdateReport(ctx, r.ID, storage.ReportPatch{Status: &status, HandledBy: &mod, Resolution: strp("removed")})
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, updated.Status)
	require.NotNil(t, updated.HandledBy)
	assert.Equal(t, mod, *updated.HandledBy)

	open, err := s.ListReports(ctx, models.ReportOpen, storage.Page{})
	require.NoError(t, err)
	assert.Empty(t, open)
	all, err := s.ListReports(ctx, "", storage.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.CreateAuditLog(ctx, storage.NewAuditLog{Action: models.AuditReportUpdated, ActorID: mod, Target: models.NewTarget(models.TargetUser, reporter), Metadata: map[string]interface{}{"status": "RESOLVED"}})
	require.NoError(t, err)
	_, err = s.CreateAuditLog(ctx, storage.NewAuditLog{Action: models.AuditRoleChanged, ActorID: reporter, Target: models.NewTarget(models.TargetUser, mod)})
	require.NoError(t, err)

	logs, err := s.ListAuditLogs(ctx, storage.AuditFilter{ActorID: mod})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "RESOLVED", logs[0].Metadata["status"])

	byTarget, err := s.ListAuditLogs(ctx, storage.AuditFilter{Target: &target})
	require.NoError(t, err)
	assert.Len(t, byTarget, 1)
}

func testSearch(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := MustUser(t, s, "Tesla Tom")
	_, err := s.CreateUser(ctx, storage.NewUser{Email: "model3fan@tesla.example", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = s.CreateCommunity(ctx, storage.NewCommunity{Slug: "tesla-owners", Name: "Tesla Owners", CreatorID: u})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, storage.NewPost{AuthorID: u, Text: strings.Repeat("road ", 20) + "my TESLA did 600km"})
	require.NoError(t, err)
	_, err = s.CreateStation(ctx, storage.NewStation{Name: "Central", Network: "Tesla Supercharger"})
	require.NoError(t, err)

	res, err := storage.Search(ctx, s, "tesla", storage.FullLimit)
	require.NoError(t, err)
	assert.Len(t, res.Communities, 1)
	assert.Len(t, res.Stations, 1)
	require.Len(t, res.Posts, 1)
	assert.Contains(t, res.Posts[0].Snippet, "TESLA")
	assert.False(t, strings.HasPrefix(res.Posts[0].Snippet, "road road"), "snippet is windowed around the match")
	assert.Len(t, res.Users, 2)

	blank, err := storage.Search(ctx, s, "   ", storage.FullLimit)
	require.NoError(t, err)
	assert.Empty(t, blank.Communities)
	assert.Empty(t, blank.Posts)
	assert.Empty(t, blank.Stations)
	assert.Empty(t, blank.Users)

	for i := 0; i < 8; i++ {
		_, err = s.CreatePost(ctx, storage.NewPost{AuthorID: u, Text: fmt.Sprintf("tesla post %d", i)})
		require.NoError(t, err)
	}
	res, err = storage.Search(ctx, s, "TESLA", storage.SuggestLimit)
	require.NoError(t, err)
	assert.Len(t, res.Posts, storage.SuggestLimit)

	_, err = s.CreatePost(ctx, storage.NewPost{AuthorID: u, Text: "did 100 km today"})
	require.NoError(t, err)
	percent, err := storage.Search(ctx, s, "100%", storage.FullLimit)
	require.NoError(t, err)
	assert.Empty(t, percent.Posts, "wildcards in the term match literally")
}

func testRecountIsStable(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := MustUser(t, s, "Xia")
	b := MustUser(t, s, "Yan")
	_, err := s.FollowUser(ctx, a, b)
	require.NoError(t, err)
	post, err := s.CreatePost(ctx, storage.NewPost{AuthorID: a, Text: "x"})
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, storage.NewComment{PostID: post.ID, AuthorID: b, Text: "y"})
	require.NoError(t, err)
	c, err := s.CreateCommunity(ctx, storage.NewCommunity{Slug: "recount", Name: "Recount", CreatorID: a})
	require.NoError(t, err)
	_, err = s.JoinCommunity(ctx, c.ID, b)
	require.NoError(t, err)

	require.NoError(t, s.RecountCounters(ctx))

	pb, _ := s.GetProfile(ctx, b)
	assert.Equal(t, 1, pb.FollowersCount)
	gotPost, _ := s.GetPost(ctx, post.ID)
	assert.Equal(t, 1, gotPost.CommentsCount)
	gotCommunity, _ := s.GetCommunity(ctx, c.ID)
	assert.Equal(t, 1, gotCommunity.MembersCount)
}

func testConcurrentJoins(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	owner := MustUser(t, s, "Zed")
	joiner := MustUser(t, s, "Zoe")
	c, err := s.CreateCommunity(ctx, storage.NewCommunity{Slug: "race", Name: "Race", CreatorID: owner})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.JoinCommunity(ctx, c.ID, joiner)
		}()
	}
	wg.Wait()

	got, err := s.GetCommunity(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MembersCount)
	members, err := s.ListCommunityMembers(ctx, c.ID, storage.Page{})
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
