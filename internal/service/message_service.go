package service

import (
	"context"
	"strings"

	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/validation"
)

const maxMessageLen = 4000

// MessageService handles one-to-one conversations.
type MessageService struct {
	store  storage.Storage
	notify *NotificationService
}

func NewMessageService(store storage.Storage, notify *NotificationService) *MessageService {
	return &MessageService{store: store, notify: notify}
}

func (s *MessageService) guardPair(ctx context.Context, a, b string) error {
	blocked, err := s.store.IsBlocked(ctx, a, b)
	if err != nil {
		return err
	}
	if blocked {
		return models.NewForbiddenError("You cannot message this user")
	}
	return nil
}

// StartConversation returns the conversation between the actor and otherID,
// creating it on first use.
func (s *MessageService) StartConversation(ctx context.Context, actor Actor, otherID string) (*models.Conversation, error) {
	if otherID == "" {
		return nil, models.NewValidationError("user_id is required")
	}
	if otherID == actor.ID {
		return nil, models.NewValidationError("You cannot message yourself")
	}
	other, err := s.store.GetUser(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, models.NewNotFoundError("User", otherID)
	}
	if err := s.guardPair(ctx, actor.ID, otherID); err != nil {
		return nil, err
	}
	return s.store.GetOrCreateConversation(ctx, actor.ID, otherID)
}

func (s *MessageService) ListConversations(ctx context.Context, actor Actor) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx, actor.ID)
}

// conversationFor loads a conversation the actor takes part in. Other
// users' conversations are reported as missing.
func (s *MessageService) conversationFor(ctx context.Context, actor Actor, id string) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil || !conv.HasParticipant(actor.ID) {
		return nil, models.NewNotFoundError("Conversation", id)
	}
	return conv, nil
}

func (s *MessageService) SendMessage(ctx context.Context, actor Actor, conversationID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if err := validation.ValidateRequired("text", text, maxMessageLen); err != nil {
		return nil, invalid(err)
	}
	conv, err := s.conversationFor(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	recipient := conv.OtherParticipant(actor.ID)
	if err := s.guardPair(ctx, actor.ID, recipient); err != nil {
		return nil, err
	}

	msg, err := s.store.CreateMessage(ctx, storage.NewMessage{ConversationID: conv.ID, SenderID: actor.ID, Text: text})
	if err != nil {
		return nil, err
	}
	s.notify.notifyQuietly(ctx, storage.NewNotification{
		UserID:  recipient,
		Type:    models.NotifyMessage,
		ActorID: actor.ID,
		Target:  models.NewTarget(models.TargetMessage, msg.ID),
		Message: "sent you a message",
	})
	return msg, nil
}

func (s *MessageService) ListMessages(ctx context.Context, actor Actor, conversationID string, page storage.Page) ([]models.Message, error) {
	if _, err := s.conversationFor(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID, page)
}

// MarkRead records a read receipt. Marking one's own message is a no-op.
func (s *MessageService) MarkRead(ctx context.Context, actor Actor, conversationID, messageID string) (*models.Message, error) {
	if _, err := s.conversationFor(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	msg, err := s.store.MarkMessageRead(ctx, conversationID, messageID, actor.ID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, models.NewNotFoundError("Message", messageID)
	}
	if msg.SenderID != actor.ID {
		s.notify.Push(ctx, msg.SenderID, "message_read", msg)
	}
	return msg, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, actor Actor) (int, error) {
	return s.store.GetUnreadMessageCount(ctx, actor.ID)
}
