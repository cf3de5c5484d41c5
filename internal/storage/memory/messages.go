package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) GetOrCreateConversation(_ context.Context, a, b string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first, second := models.ParticipantPair(a, b)
	key := pairKey(first, second)
	if id, exists := s.pairIndex[key]; exists {
		return cloneConversation(s.conversations[id]), nil
	}
	now := s.now()
	c := models.Conversation{
		ID:             storage.NewID(),
		ParticipantAID: first,
		ParticipantBID: second,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.conversations[c.ID] = c
	s.pairIndex[key] = c.ID
	return cloneConversation(c), nil
}

func (s *Store) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	return cloneConversation(c), nil
}

// ListConversations orders by most recent activity.
func (s *Store) ListConversations(_ context.Context, userID string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.conversations, cloneConversation, func(c *models.Conversation) bool {
		return c.HasParticipant(userID)
	})
	newestFirst(out, func(c *models.Conversation) time.Time { return c.UpdatedAt })
	return out, nil
}

func (s *Store) CreateMessage(_ context.Context, in storage.NewMessage) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[in.ConversationID]
	if !ok {
		return nil, nil
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
	s.messages[m.ID] = m
	c.LastMessageAt = &sent
	c.UpdatedAt = now
	s.conversations[c.ID] = c
	return cloneMessage(m), nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string, page storage.Page) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.messages, cloneMessage, func(m *models.Message) bool { return m.ConversationID == conversationID })
	newestFirst(out, func(m *models.Message) time.Time { return m.CreatedAt })
	return paginate(out, page), nil
}

func (s *Store) MarkMessageRead(_ context.Context, conversationID, messageID, userID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok || m.ConversationID != conversationID {
		return nil, nil
	}
	if m.SenderID == userID || m.IsRead {
		return cloneMessage(m), nil
	}
	now := s.now()
	m.IsRead = true
	m.ReadAt = &now
	s.messages[messageID] = m
	return cloneMessage(m), nil
}

func (s *Store) GetUnreadMessageCount(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mine := make(map[string]bool)
	for id, c := range s.conversations {
		if c.HasParticipant(userID) {
			mine[id] = true
		}
	}
	count := 0
	for _, m := range s.messages {
		if mine[m.ConversationID] && m.SenderID != userID && !m.IsRead {
			count++
		}
	}
	return count, nil
}
