package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcircle/internal/storage"
	"evcircle/internal/storage/storagetest"
)

func TestStoreConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage { return New() })
}

func TestRecountRepairsDrift(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := storagetest.MustUser(t, s, "Ada")
	b := storagetest.MustUser(t, s, "Bo")
	_, err := s.FollowUser(ctx, a, b)
	require.NoError(t, err)
	post, err := s.CreatePost(ctx, storage.NewPost{AuthorID: a, Text: "hello"})
	require.NoError(t, err)

	s.mu.Lock()
	p := s.profiles[b]
	p.FollowersCount = 7
	s.profiles[b] = p
	pp := s.posts[post.ID]
	pp.CommentsCount = 3
	s.posts[post.ID] = pp
	s.mu.Unlock()

	require.NoError(t, s.RecountCounters(ctx))

	profile, _ := s.GetProfile(ctx, b)
	assert.Equal(t, 1, profile.FollowersCount)
	got, _ := s.GetPost(ctx, post.ID)
	assert.Equal(t, 0, got.CommentsCount)
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	post, err := s.CreatePost(ctx, storage.NewPost{AuthorID: "a", Text: "x", Media: []string{"one.jpg"}})
	require.NoError(t, err)

	post.Media[0] = "mutated.jpg"
	got, _ := s.GetPost(ctx, post.ID)
	assert.Equal(t, "one.jpg", got.Media[0])
}

func TestNowIsStrictlyIncreasing(t *testing.T) {
	s := New()
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.now()
	for i := 0; i < 100; i++ {
		next := s.now()
		assert.True(t, next.After(prev))
		prev = next
	}
}
