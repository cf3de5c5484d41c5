package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"evcircle/internal/middleware"
	"evcircle/internal/models"
	"evcircle/internal/service"
	"evcircle/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Locals keys set by AuthRequired.
const (
	localUserID = "userID"
	localActor  = "actor"
	localClaims = "claims"
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) storage.Page {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return storage.Page{Limit: limit, Offset: offset}.Normalize()
}

// parseBody decodes the JSON body into dest. On failure it writes a 400 and
// returns errResponseWritten. Callers should check: if err != nil { return nil }
func parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// queryFloat parses a required float query parameter, writing a 400 on failure.
func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(name+" is required"))
		return 0, errResponseWritten
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+name))
		return 0, errResponseWritten
	}
	return v, nil
}

// respondError serves err with the status its code maps to. Server-side
// failures are logged; unclassified ones are hidden behind a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.Int("status", status), slog.String("error", err.Error()))
		if status == fiber.StatusInternalServerError && !models.IsCode(err, models.CodeInternal) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// actor returns the authenticated caller. Only valid behind AuthRequired.
func actor(c *fiber.Ctx) service.Actor {
	a, _ := c.Locals(localActor).(service.Actor)
	return a
}

func claims(c *fiber.Ctx) *service.Claims {
	cl, _ := c.Locals(localClaims).(*service.Claims)
	return cl
}

// list guarantees JSON arrays instead of null for empty results.
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// limit applies a named per-caller budget on top of the global IP limiter.
func (s *Server) limit(name string, n int, window time.Duration) fiber.Handler {
	return s.limiter.Middleware(middleware.Limit{Name: name, Max: n, Window: window})
}
