package sqlstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

const participantClause = "participant_a_id = ? OR participant_b_id = ?"

func (s *Store) GetOrCreateConversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	first, second := models.ParticipantPair(a, b)
	var out *models.Conversation
	err := s.tx(ctx, "get_or_create_conversation", func(tx *gorm.DB) error {
		now := s.now()
		c := models.Conversation{
			ID:             storage.NewID(),
			ParticipantAID: first,
			ParticipantBID: second,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_a_id"}, {Name: "participant_b_id"}},
			DoNothing: true,
		}).Create(&c).Error
		if err != nil {
			return err
		}
		out, err = take[models.Conversation](tx, "participant_a_id = ? AND participant_b_id = ?", first, second)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	c, err := take[models.Conversation](s.conn(ctx), "id = ?", id)
	return c, s.wrap("get_conversation", err)
}

// ListConversations orders by most recent activity.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	out, err := findAll[models.Conversation](s.conn(ctx).Where(participantClause, userID, userID).Order("updated_at DESC"))
	return out, s.wrap("list_conversations", err)
}

func (s *Store) CreateMessage(ctx context.Context, in storage.NewMessage) (*models.Message, error) {
	var out *models.Message
	err := s.tx(ctx, "create_message", func(tx *gorm.DB) error {
		c, err := take[models.Conversation](tx, "id = ?", in.ConversationID)
		if err != nil || c == nil {
			return err
		}
		now := s.now()
		sent := now
		if !in.SentAt.IsZero() {
			sent = in.SentAt.UTC()
		}
		m := models.Message{
			ID:             storage.NewID(),
			ConversationID: in.ConversationID,
			SenderID:       in.SenderID,
			Text:           in.Text,
			CreatedAt:      sent,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		err = tx.Model(&models.Conversation{}).Where("id = ?", c.ID).UpdateColumns(map[string]interface{}{
			"last_message_at": sent,
			"updated_at":      now,
		}).Error
		if err != nil {
			return err
		}
		out = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string, page storage.Page) ([]models.Message, error) {
	out, err := findPage[models.Message](
		s.conn(ctx).Where("conversation_id = ?", conversationID).Order("created_at DESC"), page)
	return out, s.wrap("list_messages", err)
}

func (s *Store) MarkMessageRead(ctx context.Context, conversationID, messageID, userID string) (*models.Message, error) {
	var out *models.Message
	err := s.tx(ctx, "mark_message_read", func(tx *gorm.DB) error {
		m, err := take[models.Message](tx, "id = ? AND conversation_id = ?", messageID, conversationID)
		if err != nil || m == nil {
			return err
		}
		out = m
		if m.SenderID == userID || m.IsRead {
			return nil
		}
		now := s.now()
		err = tx.Model(&models.Message{}).Where("id = ? AND is_read = ?", messageID, false).
			UpdateColumns(map[string]interface{}{"is_read": true, "read_at": now}).Error
		if err != nil {
			return err
		}
		out, err = take[models.Message](tx, "id = ?", messageID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetUnreadMessageCount(ctx context.Context, userID string) (int, error) {
	db := s.conn(ctx)
	mine := db.Model(&models.Conversation{}).Select("id").Where(participantClause, userID, userID)
	var n int64
	err := db.Model(&models.Message{}).
		Where("conversation_id IN (?) AND sender_id <> ? AND is_read = ?", mine, userID, false).
		Count(&n).Error
	return int(n), s.wrap("get_unread_message_count", err)
}
