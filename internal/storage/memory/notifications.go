package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateNotification(_ context.Context, in storage.NewNotification) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := models.Notification{
		ID:        storage.NewID(),
		UserID:    in.UserID,
		Type:      in.Type,
		ActorID:   in.ActorID,
		Target:    in.Target,
		Message:   in.Message,
		CreatedAt: s.now(),
	}
	s.notifications[n.ID] = n
	return cloneNotification(n), nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, unreadOnly bool, page storage.Page) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.notifications, cloneNotification, func(n *models.Notification) bool {
		return n.UserID == userID && (!unreadOnly || !n.IsRead)
	})
	newestFirst(out, func(n *models.Notification) time.Time { return n.CreatedAt })
	return paginate(out, page), nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id, userID string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, nil
	}
	n.IsRead = true
	s.notifications[id] = n
	return cloneNotification(n), nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for id, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			s.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (s *Store) CountUnreadNotifications(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
