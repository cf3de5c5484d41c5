package mongostore

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"evcircle/internal/models"
)

// matchAny builds a case-insensitive substring filter over fields. The term
// is quoted so regex metacharacters match literally.
func matchAny(term string, fields ...string) bson.M {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: re})
	}
	return bson.M{"$or": or}
}

func searchIn[T any](s *Store, ctx context.Context, coll, op, term string, limit int, fields ...string) ([]T, error) {
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	out, err := findAll[T](ctx, s.c(coll), matchAny(term, fields...), opts)
	return out, s.wrap(op, err)
}

func (s *Store) SearchCommunities(ctx context.Context, term string, limit int) ([]models.Community, error) {
	return searchIn[models.Community](s, ctx, colCommunities, "search_communities", term, limit, "name", "slug", "description")
}

func (s *Store) SearchPosts(ctx context.Context, term string, limit int) ([]models.Post, error) {
	return searchIn[models.Post](s, ctx, colPosts, "search_posts", term, limit, "text")
}

func (s *Store) SearchStations(ctx context.Context, term string, limit int) ([]models.Station, error) {
	return searchIn[models.Station](s, ctx, colStations, "search_stations", term, limit, "name", "address", "network")
}

func (s *Store) SearchProfiles(ctx context.Context, term string, limit int) ([]models.Profile, error) {
	return searchIn[models.Profile](s, ctx, colProfiles, "search_profiles", term, limit, "display_name")
}

func (s *Store) SearchUsersByEmail(ctx context.Context, term string, limit int) ([]models.User, error) {
	return searchIn[models.User](s, ctx, colUsers, "search_users_by_email", term, limit, "email")
}
