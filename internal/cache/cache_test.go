package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideCachesResult(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{Name: "ionity", Count: 4}
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, "thing:1", &first, time.Minute, fetch(&first)))
	assert.Equal(t, "ionity", first.Name)
	assert.True(t, mr.Exists("thing:1"))

	var second cachedThing
	require.NoError(t, Aside(ctx, "thing:1", &second, time.Minute, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	mr.FastForward(2 * time.Minute)
	var third cachedThing
	require.NoError(t, Aside(ctx, "thing:1", &third, time.Minute, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAsideDoesNotCacheErrors(t *testing.T) {
	mr := setupMiniredis(t)

	var dest cachedThing
	err := Aside(context.Background(), "thing:err", &dest, time.Minute, func() error {
		return errors.New("upstream down")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists("thing:err"))
}

func TestAsideWithoutClient(t *testing.T) {
	SetClient(nil)
	var dest cachedThing
	err := Aside(context.Background(), "thing:2", &dest, time.Minute, func() error {
		dest.Name = "fresh"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", dest.Name)
}

func TestAsideDropsCorruptEntries(t *testing.T) {
	mr := setupMiniredis(t)
	require.NoError(t, mr.Set("thing:3", "{not json"))

	var dest cachedThing
	require.NoError(t, Aside(context.Background(), "thing:3", &dest, time.Minute, func() error {
		dest.Count = 7
		return nil
	}))
	assert.Equal(t, 7, dest.Count)

	stored, err := mr.Get("thing:3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"","count":7}`, stored)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "profile:abc", ProfileKey("abc"))
	assert.Equal(t, "community:tesla-owners", CommunityKey("tesla-owners"))
	assert.Equal(t, "blacklist:j1", RevokedTokenKey("j1"))
	assert.Equal(t, ChargemapKey(52.5201, 13.4049, 5, 10), ChargemapKey(52.5198, 13.4012, 5, 10))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := Connect(ctx, mr.Addr())
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", "v", 0).Err())
	_ = c.Close()

	c, err = Connect(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = c.Close()

	_, err = Connect(ctx, "")
	assert.Error(t, err)
	_, err = Connect(ctx, "redis://bad host:port")
	assert.Error(t, err)

	mr.Close()
	_, err = Connect(ctx, mr.Addr())
	assert.Error(t, err)
}

func TestInitRedisFallsBackToNil(t *testing.T) {
	t.Cleanup(func() { SetClient(nil) })
	InitRedis("")
	assert.Nil(t, GetClient())

	mr := miniredis.RunT(t)
	InitRedis(mr.Addr())
	assert.NotNil(t, GetClient())
}
