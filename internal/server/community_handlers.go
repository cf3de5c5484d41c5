package server

import (
	"strings"

	"evcircle/internal/models"
	"evcircle/internal/service"
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetCommunities handles GET /api/communities?type=
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	filter := storage.CommunityFilter{
		Type: models.CommunityType(strings.ToUpper(c.Query("type"))),
		Page: parsePagination(c, storage.DefaultPageSize),
	}
	communities, err := s.svc.Communities.ListCommunities(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(communities))
}

// GetCommunityBySlug handles GET /api/communities/:slug
func (s *Server) GetCommunityBySlug(c *fiber.Ctx) error {
	community, err := s.svc.Communities.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}

// CreateCommunity handles POST /api/communities
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	var req struct {
		Slug        string               `json:"slug"`
		Name        string               `json:"name"`
		Description string               `json:"description"`
		Type        models.CommunityType `json:"type"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	community, err := s.svc.Communities.CreateCommunity(c.UserContext(), actor(c), service.CreateCommunityInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

// UpdateCommunity handles PUT /api/communities/:id
func (s *Server) UpdateCommunity(c *fiber.Ctx) error {
	var req struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Type        *models.CommunityType `json:"type"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	community, err := s.svc.Communities.UpdateCommunity(c.UserContext(), actor(c), c.Params("id"), service.UpdateCommunityInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}

// DeleteCommunity handles DELETE /api/communities/:id
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	if err := s.svc.Communities.DeleteCommunity(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// JoinCommunity handles POST /api/communities/:id/join. Joining twice is a no-op.
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	member, err := s.svc.Communities.Join(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(member)
}

// LeaveCommunity handles POST /api/communities/:id/leave
func (s *Server) LeaveCommunity(c *fiber.Ctx) error {
	left, err := s.svc.Communities.Leave(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"left": left})
}

// GetCommunityMembers handles GET /api/communities/:id/members
func (s *Server) GetCommunityMembers(c *fiber.Ctx) error {
	members, err := s.svc.Communities.Members(c.UserContext(), c.Params("id"), parsePagination(c, 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(members))
}

// GetCommunityPosts handles GET /api/communities/:id/posts
func (s *Server) GetCommunityPosts(c *fiber.Ctx) error {
	posts, err := s.svc.Communities.Posts(c.UserContext(), c.Params("id"), parsePagination(c, storage.DefaultPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(posts))
}
