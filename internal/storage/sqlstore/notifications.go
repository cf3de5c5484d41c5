package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateNotification(ctx context.Context, in storage.NewNotification) (*models.Notification, error) {
	n := models.Notification{
		ID:        storage.NewID(),
		UserID:    in.UserID,
		Type:      in.Type,
		ActorID:   in.ActorID,
		Target:    in.Target,
		Message:   in.Message,
		CreatedAt: s.now(),
	}
	if err := s.conn(ctx).Create(&n).Error; err != nil {
		return nil, s.wrap("create_notification", err)
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, page storage.Page) ([]models.Notification, error) {
	q := s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	out, err := findPage[models.Notification](q, page)
	return out, s.wrap("list_notifications", err)
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	var out *models.Notification
	err := s.tx(ctx, "mark_notification_read", func(tx *gorm.DB) error {
		res := tx.Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, userID).UpdateColumn("is_read", true)
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		var err error
		out, err = take[models.Notification](tx, "id = ?", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res := s.conn(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	return int(res.RowsAffected), s.wrap("mark_all_notifications_read", res.Error)
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error
	return int(n), s.wrap("count_unread_notifications", err)
}
