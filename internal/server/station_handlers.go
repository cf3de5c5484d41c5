package server

import (
	"errors"
	"strings"

	"evcircle/internal/cache"
	"evcircle/internal/chargemap"
	"evcircle/internal/models"
	"evcircle/internal/service"
	"evcircle/internal/storage"
	"evcircle/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetStations handles GET /api/stations?network=&connector=&added_by=
func (s *Server) GetStations(c *fiber.Ctx) error {
	stations, err := s.svc.Stations.ListStations(c.UserContext(), storage.StationFilter{
		Network:   c.Query("network"),
		Connector: c.Query("connector"),
		AddedBy:   c.Query("added_by"),
		Page:      parsePagination(c, storage.DefaultPageSize),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(stations))
}

// GetStation handles GET /api/stations/:id
func (s *Server) GetStation(c *fiber.Ctx) error {
	station, err := s.svc.Stations.GetStation(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(station)
}

type stationRequest struct {
	Name       *string   `json:"name"`
	Address    *string   `json:"address"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	Connectors *[]string `json:"connectors"`
	Network    *string   `json:"network"`
	PowerKW    *float64  `json:"power_kw"`
}

// CreateStation handles POST /api/stations
func (s *Server) CreateStation(c *fiber.Ctx) error {
	var req stationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Latitude == nil || req.Longitude == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("latitude and longitude are required"))
	}

	in := service.CreateStationInput{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Address != nil {
		in.Address = *req.Address
	}
	if req.Connectors != nil {
		in.Connectors = *req.Connectors
	}
	if req.Network != nil {
		in.Network = *req.Network
	}
	if req.PowerKW != nil {
		in.PowerKW = *req.PowerKW
	}

	station, err := s.svc.Stations.CreateStation(c.UserContext(), actor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(station)
}

// UpdateStation handles PUT /api/stations/:id
func (s *Server) UpdateStation(c *fiber.Ctx) error {
	var req stationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	station, err := s.svc.Stations.UpdateStation(c.UserContext(), actor(c), c.Params("id"), service.UpdateStationInput{
		Name:       req.Name,
		Address:    req.Address,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Connectors: req.Connectors,
		Network:    req.Network,
		PowerKW:    req.PowerKW,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(station)
}

// DeleteStation handles DELETE /api/stations/:id
func (s *Server) DeleteStation(c *fiber.Ctx) error {
	if err := s.svc.Stations.DeleteStation(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetChargingStations handles GET /api/charging-stations by proxying Open
// Charge Map. Results are cached per rounded query.
func (s *Server) GetChargingStations(c *fiber.Ctx) error {
	ctx := c.UserContext()
	lat, err := queryFloat(c, "latitude")
	if err != nil {
		return nil
	}
	lng, err := queryFloat(c, "longitude")
	if err != nil {
		return nil
	}
	if err := validation.ValidateCoordinates(lat, lng); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}

	q := chargemap.Query{
		Latitude:   lat,
		Longitude:  lng,
		DistanceKm: c.QueryInt("distance", 0),
		MaxResults: c.QueryInt("max_results", 0),
	}.Normalize()

	var stations []chargemap.Station
	key := cache.ChargemapKey(q.Latitude, q.Longitude, q.DistanceKm, q.MaxResults)
	err = cache.Aside(ctx, key, &stations, cache.ChargemapTTL, func() error {
		found, err := s.chargemap.Nearby(ctx, q)
		if err != nil {
			return err
		}
		stations = found
		return nil
	})
	if err != nil {
		if errors.Is(err, chargemap.ErrUpstream) {
			err = models.NewUpstreamError("Charging station provider is unavailable", err)
		}
		return respondError(c, err)
	}
	return c.JSON(list(stations))
}

// GetBookmarks handles GET /api/bookmarks?kind=
func (s *Server) GetBookmarks(c *fiber.Ctx) error {
	kind := models.TargetKind(strings.ToUpper(c.Query("kind")))
	bookmarks, err := s.svc.Stations.ListBookmarks(c.UserContext(), actor(c), kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list(bookmarks))
}

// CreateBookmark handles POST /api/bookmarks. Bookmarking the same target
// twice returns the existing bookmark.
func (s *Server) CreateBookmark(c *fiber.Ctx) error {
	var req struct {
		Kind models.TargetKind `json:"kind"`
		ID   string            `json:"id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	target := models.NewTarget(models.TargetKind(strings.ToUpper(string(req.Kind))), req.ID)
	bookmark, err := s.svc.Stations.CreateBookmark(c.UserContext(), actor(c), target)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bookmark)
}

// DeleteBookmark handles DELETE /api/bookmarks/:id
func (s *Server) DeleteBookmark(c *fiber.Ctx) error {
	if err := s.svc.Stations.DeleteBookmark(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
