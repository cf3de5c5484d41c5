package service

import (
	"context"
	"log/slog"

	"evcircle/internal/middleware"
	"evcircle/internal/models"
	"evcircle/internal/notifications"
	"evcircle/internal/storage"
)

// NotificationService persists inbox entries and pushes them to connected
// clients.
type NotificationService struct {
	store    storage.NotificationStore
	notifier *notifications.Notifier
}

func NewNotificationService(store storage.NotificationStore, notifier *notifications.Notifier) *NotificationService {
	return &NotificationService{store: store, notifier: notifier}
}

// Notify stores a notification and publishes it. Notifications a user would
// send to themselves are dropped and return nil.
func (s *NotificationService) Notify(ctx context.Context, in storage.NewNotification) (*models.Notification, error) {
	if in.UserID == "" || in.UserID == in.ActorID {
		return nil, nil
	}
	n, err := s.store.CreateNotification(ctx, in)
	if err != nil {
		return nil, err
	}
	event := notifications.Event{Type: "notification", Payload: n}
	if err := s.notifier.PublishEvent(ctx, n.UserID, event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.String("notification_id", n.ID), slog.String("error", err.Error()))
	}
	return n, nil
}

// notifyQuietly is Notify for side effects that must not fail the caller.
func (s *NotificationService) notifyQuietly(ctx context.Context, in storage.NewNotification) {
	if _, err := s.Notify(ctx, in); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to create notification",
			slog.String("type", string(in.Type)), slog.String("error", err.Error()))
	}
}

// Push sends a realtime event without storing it.
func (s *NotificationService) Push(ctx context.Context, userID, eventType string, payload interface{}) {
	if err := s.notifier.PublishEvent(ctx, userID, notifications.Event{Type: eventType, Payload: payload}); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("type", eventType), slog.String("error", err.Error()))
	}
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, page storage.Page) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly, page)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	n, err := s.store.MarkNotificationRead(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, models.NewNotFoundError("Notification", id)
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}
