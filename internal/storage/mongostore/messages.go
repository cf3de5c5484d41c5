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

func participantOf(userID string) bson.M {
	return bson.M{"$or": bson.A{bson.M{"participant_a_id": userID}, bson.M{"participant_b_id": userID}}}
}

func (s *Store) GetOrCreateConversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	first, second := models.ParticipantPair(a, b)
	now := s.now()
	c := models.Conversation{
		ID:             storage.NewID(),
		ParticipantAID: first,
		ParticipantBID: second,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	inserted, err := s.insertOnce(ctx, colConversations, c)
	if err != nil {
		return nil, s.wrap("get_or_create_conversation", err)
	}
	if inserted {
		return &c, nil
	}
	existing, err := findOne[models.Conversation](ctx, s.c(colConversations),
		bson.M{"participant_a_id": first, "participant_b_id": second})
	return existing, s.wrap("get_or_create_conversation", err)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	c, err := findOne[models.Conversation](ctx, s.c(colConversations), byID(id))
	return c, s.wrap("get_conversation", err)
}

// ListConversations orders by most recent activity.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	out, err := findAll[models.Conversation](ctx, s.c(colConversations), participantOf(userID),
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	return out, s.wrap("list_conversations", err)
}

func (s *Store) CreateMessage(ctx context.Context, in storage.NewMessage) (*models.Message, error) {
	now := s.now()
	sent := now
	if !in.SentAt.IsZero() {
		sent = in.SentAt.UTC()
	}
	res, err := s.c(colConversations).UpdateOne(ctx, byID(in.ConversationID),
		bson.M{"$set": bson.M{"last_message_at": sent, "updated_at": now}})
	if err != nil {
		return nil, s.wrap("create_message", err)
	}
	if res.MatchedCount == 0 {
		return nil, nil
	}
	m := models.Message{
		ID:             storage.NewID(),
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Text:           in.Text,
		CreatedAt:      sent,
	}
	if _, err := s.c(colMessages).InsertOne(ctx, m); err != nil {
		return nil, s.wrap("create_message", err)
	}
	return &m, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string, page storage.Page) ([]models.Message, error) {
	out, err := findPage[models.Message](ctx, s.c(colMessages), bson.M{"conversation_id": conversationID}, newestFirst, page)
	return out, s.wrap("list_messages", err)
}

func (s *Store) MarkMessageRead(ctx context.Context, conversationID, messageID, userID string) (*models.Message, error) {
	var m models.Message
	err := s.c(colMessages).FindOneAndUpdate(ctx,
		bson.M{"_id": messageID, "conversation_id": conversationID, "sender_id": bson.M{"$ne": userID}, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": s.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.wrap("mark_message_read", err)
	}
	// Sender, already read, or absent: return whatever is stored.
	existing, err := findOne[models.Message](ctx, s.c(colMessages),
		bson.M{"_id": messageID, "conversation_id": conversationID})
	return existing, s.wrap("mark_message_read", err)
}

func (s *Store) GetUnreadMessageCount(ctx context.Context, userID string) (int, error) {
	ids, err := s.c(colConversations).Distinct(ctx, "_id", participantOf(userID))
	if err != nil {
		return 0, s.wrap("get_unread_message_count", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.c(colMessages).CountDocuments(ctx, bson.M{
		"conversation_id": bson.M{"$in": ids},
		"sender_id":       bson.M{"$ne": userID},
		"is_read":         false,
	})
	return int(n), s.wrap("get_unread_message_count", err)
}
