package server

import (
	"time"

	"evcircle/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	session, err := s.svc.Auth.Register(c.UserContext(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return respondError(c, err)
	}
	s.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.Status(fiber.StatusCreated).JSON(session)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	session, err := s.svc.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	s.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.JSON(session)
}

// Logout handles POST /api/auth/logout. The token is revoked and the cookie cleared.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.svc.Auth.Logout(c.UserContext(), claims(c)); err != nil {
		return respondError(c, err)
	}
	c.ClearCookie(TokenCookie)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	user, profile, err := s.svc.Auth.Me(c.UserContext(), actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user, "profile": profile})
}
