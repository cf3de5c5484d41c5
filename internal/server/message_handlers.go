package server

import (
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetConversations handles GET /api/conversations
func (s *Server) GetConversations(c *fiber.Ctx) error {
	convs, err := s.svc.Messages.ListConversations(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(convs))
}

// CreateConversation handles POST /api/conversations. It returns the
// existing conversation when the pair already has one.
func (s *Server) CreateConversation(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	conv, err := s.svc.Messages.StartConversation(c.UserContext(), actor(c), req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conv)
}

// GetMessages handles GET /api/conversations/:id/messages
func (s *Server) GetMessages(c *fiber.Ctx) error {
	msgs, err := s.svc.Messages.ListMessages(c.UserContext(), actor(c), c.Params("id"), parsePagination(c, 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(msgs))
}

// SendMessage handles POST /api/conversations/:id/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.svc.Messages.SendMessage(c.UserContext(), actor(c), c.Params("id"), req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkMessageRead handles POST /api/conversations/:id/messages/:messageId/read
func (s *Server) MarkMessageRead(c *fiber.Ctx) error {
	msg, err := s.svc.Messages.MarkRead(c.UserContext(), actor(c), c.Params("id"), c.Params("messageId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msg)
}

// GetUnreadMessageCount handles GET /api/messages/unread-count
func (s *Server) GetUnreadMessageCount(c *fiber.Ctx) error {
	count, err := s.svc.Messages.UnreadCount(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// GetNotifications handles GET /api/notifications?unread=true
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	notes, err := s.svc.Notifications.List(c.UserContext(), actor(c).ID, c.QueryBool("unread"), parsePagination(c, storage.DefaultPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(notes))
}

// GetUnreadNotificationCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadNotificationCount(c *fiber.Ctx) error {
	count, err := s.svc.Notifications.UnreadCount(c.UserContext(), actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	note, err := s.svc.Notifications.MarkRead(c.UserContext(), c.Params("id"), actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(note)
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	updated, err := s.svc.Notifications.MarkAllRead(c.UserContext(), actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}
