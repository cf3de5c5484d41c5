package server

import (
	"strings"

	"evcircle/internal/models"
	"evcircle/internal/service"
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetArticles handles GET /api/articles?kind=&tag=
func (s *Server) GetArticles(c *fiber.Ctx) error {
	articles, err := s.svc.Articles.ListArticles(c.UserContext(), storage.ArticleFilter{
		Kind:     models.ArticleKind(strings.ToUpper(c.Query("kind"))),
		Tag:      strings.ToLower(strings.TrimSpace(c.Query("tag"))),
		AuthorID: c.Query("author_id"),
		Page:     parsePagination(c, storage.DefaultPageSize),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(articles))
}

// GetArticle handles GET /api/articles/:id
func (s *Server) GetArticle(c *fiber.Ctx) error {
	article, err := s.svc.Articles.GetArticle(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// CreateArticle handles POST /api/articles (moderators and admins)
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	var req struct {
		Kind     models.ArticleKind `json:"kind"`
		Title    string             `json:"title"`
		Summary  string             `json:"summary"`
		Body     string             `json:"body"`
		CoverURL string             `json:"cover_url"`
		Tags     []string           `json:"tags"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	article, err := s.svc.Articles.CreateArticle(c.UserContext(), actor(c), service.CreateArticleInput{
		Kind:     models.ArticleKind(strings.ToUpper(string(req.Kind))),
		Title:    req.Title,
		Summary:  req.Summary,
		Body:     req.Body,
		CoverURL: req.CoverURL,
		Tags:     req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// UpdateArticle handles PUT /api/articles/:id
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	var req struct {
		Kind     *models.ArticleKind `json:"kind"`
		Title    *string             `json:"title"`
		Summary  *string             `json:"summary"`
		Body     *string             `json:"body"`
		CoverURL *string             `json:"cover_url"`
		Tags     *[]string           `json:"tags"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if req.Kind != nil {
		kind := models.ArticleKind(strings.ToUpper(string(*req.Kind)))
		req.Kind = &kind
	}

	article, err := s.svc.Articles.UpdateArticle(c.UserContext(), actor(c), c.Params("id"), service.UpdateArticleInput{
		Kind:     req.Kind,
		Title:    req.Title,
		Summary:  req.Summary,
		Body:     req.Body,
		CoverURL: req.CoverURL,
		Tags:     req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// DeleteArticle handles DELETE /api/articles/:id
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	if err := s.svc.Articles.DeleteArticle(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeArticle handles POST /api/articles/:id/like
func (s *Server) LikeArticle(c *fiber.Ctx) error {
	article, err := s.svc.Articles.ToggleLike(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// GetArticleComments handles GET /api/articles/:id/comments
func (s *Server) GetArticleComments(c *fiber.Ctx) error {
	comments, err := s.svc.Articles.ListComments(c.UserContext(), c.Params("id"), parsePagination(c, 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(comments))
}

// CreateArticleComment handles POST /api/articles/:id/comments
func (s *Server) CreateArticleComment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.svc.Articles.CreateComment(c.UserContext(), actor(c), c.Params("id"), req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteArticleComment handles DELETE /api/article-comments/:id
func (s *Server) DeleteArticleComment(c *fiber.Ctx) error {
	if err := s.svc.Articles.DeleteComment(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
