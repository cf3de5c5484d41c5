package server

import (
	"evcircle/internal/service"
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id. Signed-in callers also learn
// whether they follow the user.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	profile, err := s.svc.Social.GetProfile(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{"profile": profile}
	if viewer, ok := s.optionalActor(c); ok && viewer.ID != id {
		following, err := s.svc.Social.IsFollowing(ctx, viewer.ID, id)
		if err != nil {
			return respondError(c, err)
		}
		resp["is_following"] = following
	}
	return c.JSON(resp)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	posts, err := s.svc.Posts.ListPosts(c.UserContext(), storage.PostFilter{
		AuthorID: c.Params("id"),
		Page:     parsePagination(c, storage.DefaultPageSize),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(posts))
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	follows, err := s.svc.Social.Followers(c.UserContext(), c.Params("id"), parsePagination(c, storage.DefaultPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(follows))
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	follows, err := s.svc.Social.Following(c.UserContext(), c.Params("id"), parsePagination(c, storage.DefaultPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(follows))
}

// UpdateMyProfile handles PUT /api/users/me/profile
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		DisplayName *string `json:"display_name"`
		Bio         *string `json:"bio"`
		Location    *string `json:"location"`
		Vehicle     *string `json:"vehicle"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.svc.Social.UpdateProfile(c.UserContext(), actor(c), service.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Location:    req.Location,
		Vehicle:     req.Vehicle,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetMyBlocks handles GET /api/users/me/blocks
func (s *Server) GetMyBlocks(c *fiber.Ctx) error {
	blocks, err := s.svc.Social.Blocked(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(blocks))
}

// GetMyCommunities handles GET /api/users/me/communities
func (s *Server) GetMyCommunities(c *fiber.Ctx) error {
	communities, err := s.svc.Communities.UserCommunities(c.UserContext(), actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(communities))
}

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	follow, err := s.svc.Social.Follow(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	removed, err := s.svc.Social.Unfollow(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}

// BlockUser handles POST /api/users/:id/block
func (s *Server) BlockUser(c *fiber.Ctx) error {
	block, err := s.svc.Social.Block(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(block)
}

// UnblockUser handles DELETE /api/users/:id/block
func (s *Server) UnblockUser(c *fiber.Ctx) error {
	removed, err := s.svc.Social.Unblock(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}

// GetFeed handles GET /api/feed: the caller's posts and those of followed users.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	posts, err := s.svc.Posts.Feed(c.UserContext(), actor(c).ID, parsePagination(c, storage.DefaultPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(posts))
}
