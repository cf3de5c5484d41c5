package main

import (
	"context"
	"testing"

	"evcircle/internal/models"
	"evcircle/internal/service"
	"evcircle/internal/storage"
	"evcircle/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mod := service.New(store, nil, "secret").Moderation

	user, err := store.CreateUser(ctx, storage.NewUser{Email: "driver@evcircle.test", PasswordHash: "x"})
	require.NoError(t, err)

	require.NoError(t, dispatch(ctx, mod, store, "promote", []string{"Driver@EVCircle.test", "moderator"}))
	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, got.Role)

	require.NoError(t, dispatch(ctx, mod, store, "demote", []string{user.ID}))
	got, _ = store.GetUser(ctx, user.ID)
	assert.Equal(t, models.RoleUser, got.Role)

	require.NoError(t, dispatch(ctx, mod, store, "ban", []string{user.ID, "chargeback", "fraud"}))
	got, _ = store.GetUser(ctx, user.ID)
	assert.Equal(t, models.StatusBanned, got.Status)

	require.NoError(t, dispatch(ctx, mod, store, "unban", []string{user.ID}))
	got, _ = store.GetUser(ctx, user.ID)
	assert.Equal(t, models.StatusActive, got.Status)

	require.NoError(t, dispatch(ctx, mod, store, "recount", nil))

	logs, err := store.ListAuditLogs(ctx, storage.AuditFilter{ActorID: service.SystemActor.ID})
	require.NoError(t, err)
	assert.Len(t, logs, 5)
}

func TestDispatchErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mod := service.New(store, nil, "secret").Moderation

	assert.Error(t, dispatch(ctx, mod, store, "promote", nil))
	assert.Error(t, dispatch(ctx, mod, store, "promote", []string{"nobody@evcircle.test"}))

	user, err := store.CreateUser(ctx, storage.NewUser{Email: "x@evcircle.test", PasswordHash: "x"})
	require.NoError(t, err)
	assert.Error(t, dispatch(ctx, mod, store, "promote", []string{user.ID, "emperor"}))
	assert.Error(t, dispatch(ctx, mod, store, "launch", []string{user.ID}))
}
