package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

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
	if _, err := s.c(colNotifications).InsertOne(ctx, n); err != nil {
		return nil, s.wrap("create_notification", err)
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, page storage.Page) ([]models.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	out, err := findPage[models.Notification](ctx, s.c(colNotifications), filter, newestFirst, page)
	return out, s.wrap("list_notifications", err)
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	var n models.Notification
	err := s.c(colNotifications).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap("mark_notification_read", err)
	}
	return &n, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := s.c(colNotifications).UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, s.wrap("mark_all_notifications_read", err)
	}
	return int(res.ModifiedCount), nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	n, err := s.c(colNotifications).CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
	return int(n), s.wrap("count_unread_notifications", err)
}
