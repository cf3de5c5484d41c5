package server

import (
	"log/slog"

	"evcircle/internal/middleware"
	"evcircle/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles GET /api/ws. The socket carries the caller's
// notification and message events; clients may send {"type":"ping"}.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(localUserID).(string)
		if userID == "" || s.hub == nil {
			_ = conn.Close()
			return
		}

		session, err := s.hub.Attach(userID, conn)
		if err != nil {
			middleware.Logger.Warn("notification socket refused",
				slog.String("user_id", userID), slog.String("error", err.Error()))
			_ = conn.WriteJSON(models.ErrorResponse{Error: err.Error(), Code: models.CodeUnavailable})
			_ = conn.Close()
			return
		}
		session.Run()
	})
}
