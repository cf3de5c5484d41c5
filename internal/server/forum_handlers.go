package server

import (
	"evcircle/internal/service"
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetQuestions handles GET /api/questions?tag=&author_id=&solved=
func (s *Server) GetQuestions(c *fiber.Ctx) error {
	filter := storage.QuestionFilter{
		AuthorID: c.Query("author_id"),
		Tag:      c.Query("tag"),
		Page:     parsePagination(c, storage.DefaultPageSize),
	}
	if raw := c.Query("solved"); raw != "" {
		solved := c.QueryBool("solved")
		filter.Solved = &solved
	}

	questions, err := s.svc.Forum.ListQuestions(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(questions))
}

// GetQuestion handles GET /api/questions/:id
func (s *Server) GetQuestion(c *fiber.Ctx) error {
	q, err := s.svc.Forum.GetQuestion(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(q)
}

// CreateQuestion handles POST /api/questions
func (s *Server) CreateQuestion(c *fiber.Ctx) error {
	var req struct {
		Title string   `json:"title"`
		Body  string   `json:"body"`
		Tags  []string `json:"tags"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	q, err := s.svc.Forum.CreateQuestion(c.UserContext(), actor(c), service.CreateQuestionInput{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(q)
}

// UpdateQuestion handles PUT /api/questions/:id
func (s *Server) UpdateQuestion(c *fiber.Ctx) error {
	var req struct {
		Title *string   `json:"title"`
		Body  *string   `json:"body"`
		Tags  *[]string `json:"tags"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	q, err := s.svc.Forum.UpdateQuestion(c.UserContext(), actor(c), c.Params("id"), service.UpdateQuestionInput{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(q)
}

// DeleteQuestion handles DELETE /api/questions/:id, removing its answers too.
func (s *Server) DeleteQuestion(c *fiber.Ctx) error {
	if err := s.svc.Forum.DeleteQuestion(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpvoteQuestion handles POST /api/questions/:id/upvote
func (s *Server) UpvoteQuestion(c *fiber.Ctx) error {
	q, err := s.svc.Forum.ToggleQuestionUpvote(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(q)
}

// SolveQuestion handles POST /api/questions/:id/solve. A null answer_id
// clears the solution.
func (s *Server) SolveQuestion(c *fiber.Ctx) error {
	var req struct {
		AnswerID *string `json:"answer_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	q, err := s.svc.Forum.MarkSolved(c.UserContext(), actor(c), c.Params("id"), req.AnswerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(q)
}

// GetAnswers handles GET /api/questions/:id/answers
func (s *Server) GetAnswers(c *fiber.Ctx) error {
	answers, err := s.svc.Forum.ListAnswers(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(answers))
}

// CreateAnswer handles POST /api/questions/:id/answers
func (s *Server) CreateAnswer(c *fiber.Ctx) error {
	var req struct {
		Body string `json:"body"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	answer, err := s.svc.Forum.CreateAnswer(c.UserContext(), actor(c), c.Params("id"), req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(answer)
}

// UpvoteAnswer handles POST /api/answers/:id/upvote
func (s *Server) UpvoteAnswer(c *fiber.Ctx) error {
	answer, err := s.svc.Forum.ToggleAnswerUpvote(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(answer)
}

// DeleteAnswer handles DELETE /api/answers/:id
func (s *Server) DeleteAnswer(c *fiber.Ctx) error {
	if err := s.svc.Forum.DeleteAnswer(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
