package server

import (
	"strings"

	"evcircle/internal/middleware"
	"evcircle/internal/models"
	"evcircle/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// TokenCookie carries the access token for browser clients.
const TokenCookie = "evcircle_token"

// tokenFromRequest reads a Bearer token, falling back to the session cookie.
func tokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(TokenCookie)
}

func readOnlyMethod(method string) bool {
	return method == fiber.MethodGet || method == fiber.MethodHead || method == fiber.MethodOptions
}

// AuthRequired returns the authentication middleware. Suspended accounts may
// only read and log out; banned accounts are refused by the auth service.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		user, cl, err := s.svc.Auth.Authenticate(c.UserContext(), raw)
		if err != nil {
			return respondError(c, err)
		}

		if user.Status == models.StatusSuspended && !readOnlyMethod(c.Method()) &&
			c.Path() != "/api/auth/logout" {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Your account is suspended"))
		}

		c.Locals(localUserID, user.ID)
		c.Locals(localActor, service.ActorFor(user))
		c.Locals(localClaims, cl)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

// ModeratorRequired rejects callers below MODERATOR. Place after AuthRequired.
func (s *Server) ModeratorRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !actor(c).CanModerate() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Moderator access required"))
		}
		return c.Next()
	}
}

// optionalActor resolves the caller when a valid token is present without
// failing anonymous requests.
func (s *Server) optionalActor(c *fiber.Ctx) (service.Actor, bool) {
	raw := tokenFromRequest(c)
	if raw == "" {
		return service.Actor{}, false
	}
	user, _, err := s.svc.Auth.Authenticate(c.UserContext(), raw)
	if err != nil {
		return service.Actor{}, false
	}
	return service.ActorFor(user), true
}

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
