package server

import (
	"evcircle/internal/service"
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts?author_id=&community_id=
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.svc.Posts.ListPosts(c.UserContext(), storage.PostFilter{
		AuthorID:    c.Query("author_id"),
		CommunityID: c.Query("community_id"),
		Page:        parsePagination(c, storage.DefaultPageSize),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(posts))
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.svc.Posts.GetPost(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Text        string   `json:"text"`
		Media       []string `json:"media"`
		CommunityID *string  `json:"community_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.svc.Posts.CreatePost(c.UserContext(), actor(c), service.CreatePostInput{
		Text:        req.Text,
		Media:       req.Media,
		CommunityID: req.CommunityID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var req struct {
		Text  *string   `json:"text"`
		Media *[]string `json:"media"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.svc.Posts.UpdatePost(c.UserContext(), actor(c), c.Params("id"), service.UpdatePostInput{
		Text:  req.Text,
		Media: req.Media,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.svc.Posts.DeletePost(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like. Liking twice removes the like.
func (s *Server) LikePost(c *fiber.Ctx) error {
	post, err := s.svc.Posts.ToggleLike(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"post":  post,
		"liked": post.LikedBy(actor(c).ID),
	})
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.svc.Posts.ListComments(c.UserContext(), c.Params("id"), parsePagination(c, 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(comments))
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.svc.Posts.CreateComment(c.UserContext(), actor(c), c.Params("id"), req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	if err := s.svc.Posts.DeleteComment(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
