package service

import (
	"context"
	"testing"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/notifications"
	"evcircle/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySuppressesSelf(t *testing.T) {
	f := newFixture(t)
	n, err := f.svc.Notifications.Notify(context.Background(), storage.NewNotification{UserID: "u1", ActorID: "u1", Type: models.NotifyFollow})
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, unread(t, f, "u1"))
}

func TestNotifyPublishesToUserChannel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	require.NoError(t, notifications.NewNotifier(f.rdb).StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == notifications.UserChannel("u2") {
			got <- payload
		}
	}))

	n, err := f.svc.Notifications.Notify(ctx, storage.NewNotification{UserID: "u2", ActorID: "u1", Type: models.NotifyFollow, Message: "hi"})
	require.NoError(t, err)
	require.NotNil(t, n)

	select {
	case payload := <-got:
		assert.Contains(t, payload, `"type":"notification"`)
		assert.Contains(t, payload, n.ID)
	case <-time.After(time.Second):
		t.Fatal("notification was not published")
	}
}

func TestNotificationInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.Notifications.Notify(ctx, storage.NewNotification{UserID: "u1", ActorID: "u2", Type: models.NotifyComment})
		require.NoError(t, err)
	}

	count, err := f.svc.Notifications.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	list, err := f.svc.Notifications.List(ctx, "u1", false, storage.Page{})
	require.NoError(t, err)
	require.Len(t, list, 3)

	_, err = f.svc.Notifications.MarkRead(ctx, list[0].ID, "someone-else")
	assertCode(t, err, models.CodeNotFound)
	read, err := f.svc.Notifications.MarkRead(ctx, list[0].ID, "u1")
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	n, err := f.svc.Notifications.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err = f.svc.Notifications.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}
