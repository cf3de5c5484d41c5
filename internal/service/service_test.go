package service

import (
	"context"
	"testing"

	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/storage/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-1234"

type fixture struct {
	store *memory.Store
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := memory.New()
	return &fixture{store: store, mr: mr, rdb: rdb, svc: New(store, rdb, testSecret)}
}

// user creates an account with a profile and returns it as an Actor.
func (f *fixture) user(t *testing.T, name string, role models.UserRole) Actor {
	t.Helper()
	ctx := context.Background()
	u, err := f.store.CreateUser(ctx, storage.NewUser{Email: name + "@evcircle.test", PasswordHash: "x", Role: role})
	require.NoError(t, err)
	_, err = f.store.CreateProfile(ctx, storage.NewProfile{UserID: u.ID, DisplayName: name})
	require.NoError(t, err)
	return ActorFor(u)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}

func unread(t *testing.T, f *fixture, userID string) []models.Notification {
	t.Helper()
	list, err := f.store.ListNotifications(context.Background(), userID, true, storage.Page{})
	require.NoError(t, err)
	return list
}

func TestCleanTags(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"charging", "winter"}, cleanTags([]string{" Charging", "winter", "", "CHARGING"}))
	assert.Empty(t, cleanTags(nil))
}

func TestAuthorOrModerator(t *testing.T) {
	t.Parallel()
	assert.NoError(t, authorOrModerator(Actor{ID: "a", Role: models.RoleUser}, "a", "edit"))
	assert.NoError(t, authorOrModerator(Actor{ID: "m", Role: models.RoleModerator}, "a", "edit"))
	assert.True(t, models.IsCode(authorOrModerator(Actor{ID: "b", Role: models.RoleUser}, "a", "edit"), models.CodeForbidden))
}

var pageAll = storage.Page{Limit: storage.MaxPageSize}
