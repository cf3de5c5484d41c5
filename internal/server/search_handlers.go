package server

import (
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// Search handles GET /api/search?q=&limit=
func (s *Server) Search(c *fiber.Ctx) error {
	res, err := storage.Search(c.UserContext(), s.store, c.Query("q"), c.QueryInt("limit", storage.FullLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Suggest handles GET /api/search/suggest?q= for type-ahead.
func (s *Server) Suggest(c *fiber.Ctx) error {
	res, err := storage.Search(c.UserContext(), s.store, c.Query("q"), storage.SuggestLimit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
