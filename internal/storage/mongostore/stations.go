package mongostore

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

// exactFold matches a string, or any element of a string array, equal to v
// ignoring case.
func exactFold(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(v)) + "$", Options: "i"}
}

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
	if _, err := s.c(colStations).InsertOne(ctx, st); err != nil {
		return nil, s.wrap("create_station", err)
	}
	return &st, nil
}

func (s *Store) GetStation(ctx context.Context, id string) (*models.Station, error) {
	st, err := findOne[models.Station](ctx, s.c(colStations), byID(id))
	return st, s.wrap("get_station", err)
}

func (s *Store) ListStations(ctx context.Context, f storage.StationFilter) ([]models.Station, error) {
	filter := bson.M{}
	if f.Network != "" {
		filter["network"] = exactFold(f.Network)
	}
	if f.AddedBy != "" {
		filter["added_by"] = f.AddedBy
	}
	if f.Connector != "" {
		filter["connectors"] = exactFold(f.Connector)
	}
	out, err := findPage[models.Station](ctx, s.c(colStations), filter, newestFirst, f.Page)
	return out, s.wrap("list_stations", err)
}

func (s *Store) UpdateStation(ctx context.Context, id string, p storage.StationPatch) (*models.Station, error) {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.Latitude != nil {
		set["latitude"] = *p.Latitude
	}
	if p.Longitude != nil {
		set["longitude"] = *p.Longitude
	}
	if p.Connectors != nil {
		set["connectors"] = strList(*p.Connectors)
	}
	if p.Network != nil {
		set["network"] = *p.Network
	}
	if p.PowerKW != nil {
		set["power_kw"] = *p.PowerKW
	}
	return patch[models.Station](s, ctx, colStations, "update_station", byID(id), set)
}

func (s *Store) DeleteStation(ctx context.Context, id string) (bool, error) {
	res, err := s.c(colStations).DeleteOne(ctx, byID(id))
	if err != nil {
		return false, s.wrap("delete_station", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	return true, s.wrap("delete_station", s.dropBookmarks(ctx, models.NewTarget(models.TargetStation, id)))
}

func bookmarkPair(userID string, t models.Target) bson.M {
	return bson.M{"user_id": userID, "target.kind": t.Kind, "target.id": t.ID}
}

func (s *Store) CreateBookmark(ctx context.Context, userID string, target models.Target) (*models.Bookmark, error) {
	b := models.Bookmark{
		ID:        storage.NewID(),
		UserID:    userID,
		Target:    target,
		CreatedAt: s.now(),
	}
	inserted, err := s.insertOnce(ctx, colBookmarks, b)
	if err != nil {
		return nil, s.wrap("create_bookmark", err)
	}
	if !inserted {
		existing, err := findOne[models.Bookmark](ctx, s.c(colBookmarks), bookmarkPair(userID, target))
		return existing, s.wrap("create_bookmark", err)
	}
	if err := s.stationBookmarks(ctx, target, 1); err != nil {
		return nil, s.wrap("create_bookmark", err)
	}
	return &b, nil
}

func (s *Store) GetBookmark(ctx context.Context, id string) (*models.Bookmark, error) {
	b, err := findOne[models.Bookmark](ctx, s.c(colBookmarks), byID(id))
	return b, s.wrap("get_bookmark", err)
}

func (s *Store) DeleteBookmark(ctx context.Context, id string) (bool, error) {
	return s.removeBookmark(ctx, "delete_bookmark", byID(id))
}

func (s *Store) DeleteBookmarkByTarget(ctx context.Context, userID string, target models.Target) (bool, error) {
	return s.removeBookmark(ctx, "delete_bookmark_by_target", bookmarkPair(userID, target))
}

func (s *Store) removeBookmark(ctx context.Context, op string, filter bson.M) (bool, error) {
	var b models.Bookmark
	if ok, err := s.deleteOne(ctx, colBookmarks, filter, &b); !ok || err != nil {
		return false, s.wrap(op, err)
	}
	return true, s.wrap(op, s.stationBookmarks(ctx, b.Target, -1))
}

func (s *Store) ListBookmarks(ctx context.Context, userID string, kind models.TargetKind) ([]models.Bookmark, error) {
	filter := bson.M{"user_id": userID}
	if kind != "" {
		filter["target.kind"] = kind
	}
	out, err := findAll[models.Bookmark](ctx, s.c(colBookmarks), filter, options.Find().SetSort(newestFirst))
	return out, s.wrap("list_bookmarks", err)
}

func (s *Store) IsBookmarked(ctx context.Context, userID string, target models.Target) (bool, error) {
	n, err := s.c(colBookmarks).CountDocuments(ctx, bookmarkPair(userID, target))
	return n > 0, s.wrap("is_bookmarked", err)
}

// dropBookmarks removes every bookmark pointing at target.
func (s *Store) dropBookmarks(ctx context.Context, target models.Target) error {
	res, err := s.c(colBookmarks).DeleteMany(ctx, bson.M{"target.kind": target.Kind, "target.id": target.ID})
	if err != nil {
		return err
	}
	return s.stationBookmarks(ctx, target, -int(res.DeletedCount))
}

func (s *Store) stationBookmarks(ctx context.Context, target models.Target, delta int) error {
	if target.Kind != models.TargetStation {
		return nil
	}
	return s.adjust(ctx, colStations, byID(target.ID), "bookmarks_count", delta)
}
