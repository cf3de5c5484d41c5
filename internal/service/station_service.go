package service

import (
	"context"
	"strings"

	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/validation"
)

const (
	maxStationNameLen = 160
	maxAddressLen     = 255
	maxNetworkLen     = 120
	maxConnectors     = 12
)

// StationService manages community-contributed stations and bookmarks.
type StationService struct {
	store storage.Storage
}

func NewStationService(store storage.Storage) *StationService {
	return &StationService{store: store}
}

type CreateStationInput struct {
	Name       string
	Address    string
	Latitude   float64
	Longitude  float64
	Connectors []string
	Network    string
	PowerKW    float64
}

type UpdateStationInput struct {
	Name       *string
	Address    *string
	Latitude   *float64
	Longitude  *float64
	Connectors *[]string
	Network    *string
	PowerKW    *float64
}

func cleanConnectors(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) > maxConnectors {
		return nil, models.NewValidationError("Too many connectors (max 12)")
	}
	return out, nil
}

func (s *StationService) CreateStation(ctx context.Context, actor Actor, in CreateStationInput) (*models.Station, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateRequired("name", name, maxStationNameLen); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateLength("address", in.Address, maxAddressLen); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateLength("network", in.Network, maxNetworkLen); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, invalid(err)
	}
	if in.PowerKW < 0 {
		return nil, models.NewValidationError("power_kw must not be negative")
	}
	connectors, err := cleanConnectors(in.Connectors)
	if err != nil {
		return nil, err
	}

	return s.store.CreateStation(ctx, storage.NewStation{
		Name:       name,
		Address:    strings.TrimSpace(in.Address),
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Connectors: connectors,
		Network:    strings.TrimSpace(in.Network),
		PowerKW:    in.PowerKW,
		AddedBy:    actor.ID,
	})
}

func (s *StationService) GetStation(ctx context.Context, id string) (*models.Station, error) {
	station, err := s.store.GetStation(ctx, id)
	if err != nil {
		return nil, err
	}
	if station == nil {
		return nil, models.NewNotFoundError("Station", id)
	}
	return station, nil
}

func (s *StationService) ListStations(ctx context.Context, filter storage.StationFilter) ([]models.Station, error) {
	return s.store.ListStations(ctx, filter)
}

func (s *StationService) UpdateStation(ctx context.Context, actor Actor, id string, in UpdateStationInput) (*models.Station, error) {
	station, err := s.GetStation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorOrModerator(actor, station.AddedBy, "edit this station"); err != nil {
		return nil, err
	}

	patch := storage.StationPatch{
		Name:      trimmed(in.Name),
		Address:   trimmed(in.Address),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Network:   trimmed(in.Network),
		PowerKW:   in.PowerKW,
	}
	if patch.Name != nil {
		if err := validation.ValidateRequired("name", *patch.Name, maxStationNameLen); err != nil {
			return nil, invalid(err)
		}
	}
	lat, lng := station.Latitude, station.Longitude
	if patch.Latitude != nil {
		lat = *patch.Latitude
	}
	if patch.Longitude != nil {
		lng = *patch.Longitude
	}
	if err := validation.ValidateCoordinates(lat, lng); err != nil {
		return nil, invalid(err)
	}
	if patch.PowerKW != nil && *patch.PowerKW < 0 {
		return nil, models.NewValidationError("power_kw must not be negative")
	}
	if in.Connectors != nil {
		connectors, err := cleanConnectors(*in.Connectors)
		if err != nil {
			return nil, err
		}
		patch.Connectors = &connectors
	}

	updated, err := s.store.UpdateStation(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFoundError("Station", id)
	}
	return updated, nil
}

func (s *StationService) DeleteStation(ctx context.Context, actor Actor, id string) error {
	station, err := s.GetStation(ctx, id)
	if err != nil {
		return err
	}
	if err := authorOrModerator(actor, station.AddedBy, "delete this station"); err != nil {
		return err
	}
	deleted, err := s.store.DeleteStation(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Station", id)
	}
	if actor.ID != station.AddedBy {
		auditRemoval(ctx, s.store, actor, models.NewTarget(models.TargetStation, id), station.AddedBy)
	}
	return nil
}

// targetExists checks that a bookmark target refers to a live entity.
func (s *StationService) targetExists(ctx context.Context, t models.Target) (bool, error) {
	switch t.Kind {
	case models.TargetStation:
		v, err := s.store.GetStation(ctx, t.ID)
		return v != nil, err
	case models.TargetPost:
		v, err := s.store.GetPost(ctx, t.ID)
		return v != nil, err
	case models.TargetQuestion:
		v, err := s.store.GetQuestion(ctx, t.ID)
		return v != nil, err
	case models.TargetArticle:
		v, err := s.store.GetArticle(ctx, t.ID)
		return v != nil, err
	}
	return false, nil
}

func (s *StationService) CreateBookmark(ctx context.Context, actor Actor, target models.Target) (*models.Bookmark, error) {
	if err := target.Validate(models.BookmarkTargets...); err != nil {
		return nil, err
	}
	exists, err := s.targetExists(ctx, target)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError(strings.ToLower(string(target.Kind)), target.ID)
	}
	return s.store.CreateBookmark(ctx, actor.ID, target)
}

func (s *StationService) ListBookmarks(ctx context.Context, actor Actor, kind models.TargetKind) ([]models.Bookmark, error) {
	if kind != "" {
		if err := models.NewTarget(kind, "-").Validate(models.BookmarkTargets...); err != nil {
			return nil, err
		}
	}
	return s.store.ListBookmarks(ctx, actor.ID, kind)
}

func (s *StationService) DeleteBookmark(ctx context.Context, actor Actor, id string) error {
	bookmark, err := s.store.GetBookmark(ctx, id)
	if err != nil {
		return err
	}
	if bookmark == nil || bookmark.UserID != actor.ID {
		return models.NewNotFoundError("Bookmark", id)
	}
	deleted, err := s.store.DeleteBookmark(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Bookmark", id)
	}
	return nil
}
