package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateStation(ctx context.Context, in storage.NewStation) (*models.Station, error) {
	now := s.now()
	st := models.Station{
		ID:         storage.NewID(),
		Name:       in.Name,
		Address:    in.Address,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Connectors: strList(in.Connectors),
		Network:    in.Network,
		PowerKW:    in.PowerKW,
		AddedBy:    in.AddedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.conn(ctx).Create(&st).Error; err != nil {
		return nil, s.wrap("create_station", err)
	}
	return &st, nil
}

func (s *Store) GetStation(ctx context.Context, id string) (*models.Station, error) {
	st, err := take[models.Station](s.conn(ctx), "id = ?", id)
	return st, s.wrap("get_station", err)
}

func (s *Store) ListStations(ctx context.Context, f storage.StationFilter) ([]models.Station, error) {
	q := s.conn(ctx).Order("created_at DESC")
	if f.Network != "" {
		q = q.Where("LOWER(network) = ?", strings.ToLower(f.Network))
	}
	if f.AddedBy != "" {
		q = q.Where("added_by = ?", f.AddedBy)
	}
	if f.Connector != "" {
		q = q.Where(fmt.Sprintf(jsonArrayClause, "connectors"), jsonElement(f.Connector))
	}
	out, err := findPage[models.Station](q, f.Page)
	return out, s.wrap("list_stations", err)
}

func (s *Store) UpdateStation(ctx context.Context, id string, patch storage.StationPatch) (*models.Station, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Address != nil {
		updates["address"] = *patch.Address
	}
	if patch.Latitude != nil {
		updates["latitude"] = *patch.Latitude
	}
	if patch.Longitude != nil {
		updates["longitude"] = *patch.Longitude
	}
	if patch.Connectors != nil {
		updates["connectors"] = strList(*patch.Connectors)
	}
	if patch.Network != nil {
		updates["network"] = *patch.Network
	}
	if patch.PowerKW != nil {
		updates["power_kw"] = *patch.PowerKW
	}
	return patchRow[models.Station](s, ctx, "update_station", "id", id, updates)
}

func (s *Store) DeleteStation(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.tx(ctx, "delete_station", func(tx *gorm.DB) error {
		if err := s.dropBookmarks(tx, models.NewTarget(models.TargetStation, id)); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Station{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

const bookmarkPair = "user_id = ? AND target_kind = ? AND target_id = ?"

func (s *Store) CreateBookmark(ctx context.Context, userID string, target models.Target) (*models.Bookmark, error) {
	var out *models.Bookmark
	err := s.tx(ctx, "create_bookmark", func(tx *gorm.DB) error {
		b := models.Bookmark{
			ID:        storage.NewID(),
			UserID:    userID,
			Target:    target,
			CreatedAt: s.now(),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_kind"}, {Name: "target_id"}},
			DoNothing: true,
		}).Create(&b)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := stationBookmarks(tx, target, 1); err != nil {
				return err
			}
		}
		var err error
		out, err = take[models.Bookmark](tx, bookmarkPair, userID, target.Kind, target.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetBookmark(ctx context.Context, id string) (*models.Bookmark, error) {
	b, err := take[models.Bookmark](s.conn(ctx), "id = ?", id)
	return b, s.wrap("get_bookmark", err)
}

func (s *Store) DeleteBookmark(ctx context.Context, id string) (bool, error) {
	return s.removeBookmark(ctx, "delete_bookmark", "id = ?", id)
}

func (s *Store) DeleteBookmarkByTarget(ctx context.Context, userID string, target models.Target) (bool, error) {
	return s.removeBookmark(ctx, "delete_bookmark_by_target", bookmarkPair, userID, target.Kind, target.ID)
}

func (s *Store) removeBookmark(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	deleted := false
	err := s.tx(ctx, op, func(tx *gorm.DB) error {
		b, err := take[models.Bookmark](tx, query, args...)
		if err != nil || b == nil {
			return err
		}
		res := tx.Where("id = ?", b.ID).Delete(&models.Bookmark{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		deleted = true
		return stationBookmarks(tx, b.Target, -1)
	})
	return deleted, err
}

func (s *Store) ListBookmarks(ctx context.Context, userID string, kind models.TargetKind) ([]models.Bookmark, error) {
	q := s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if kind != "" {
		q = q.Where("target_kind = ?", kind)
	}
	out, err := findAll[models.Bookmark](q)
	return out, s.wrap("list_bookmarks", err)
}

func (s *Store) IsBookmarked(ctx context.Context, userID string, target models.Target) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Bookmark{}).Where(bookmarkPair, userID, target.Kind, target.ID).Count(&n).Error
	return n > 0, s.wrap("is_bookmarked", err)
}

// dropBookmarks removes every bookmark pointing at target.
func (s *Store) dropBookmarks(tx *gorm.DB, target models.Target) error {
	res := tx.Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).Delete(&models.Bookmark{})
	if res.Error != nil {
		return res.Error
	}
	return stationBookmarks(tx, target, -int(res.RowsAffected))
}

func stationBookmarks(tx *gorm.DB, target models.Target, delta int) error {
	if target.Kind != models.TargetStation {
		return nil
	}
	return adjust(tx, &models.Station{}, "bookmarks_count", delta, "id = ?", target.ID)
}
