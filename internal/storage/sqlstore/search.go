package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"evcircle/internal/models"
)

// matchAny adds a case-insensitive substring match over columns, joined
// with OR. Wildcards in term match literally.
func matchAny(q *gorm.DB, term string, columns ...string) *gorm.DB {
	pattern := likeContains(term)
	cond := ""
	args := make([]interface{}, 0, len(columns))
	for i, col := range columns {
		if i > 0 {
			cond += " OR "
		}
		cond += "LOWER(" + col + ")" + likeClause
		args = append(args, pattern)
	}
	return q.Where(cond, args...)
}

func searchIn[T any](s *Store, ctx context.Context, op, term string, limit int, columns ...string) ([]T, error) {
	q := matchAny(s.conn(ctx), term, columns...).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	out, err := findAll[T](q)
	return out, s.wrap(op, err)
}

func (s *Store) SearchCommunities(ctx context.Context, term string, limit int) ([]models.Community, error) {
	return searchIn[models.Community](s, ctx, "search_communities", term, limit, "name", "slug", "description")
}

func (s *Store) SearchPosts(ctx context.Context, term string, limit int) ([]models.Post, error) {
	return searchIn[models.Post](s, ctx, "search_posts", term, limit, "text")
}

func (s *Store) SearchStations(ctx context.Context, term string, limit int) ([]models.Station, error) {
	return searchIn[models.Station](s, ctx, "search_stations", term, limit, "name", "address", "network")
}

func (s *Store) SearchProfiles(ctx context.Context, term string, limit int) ([]models.Profile, error) {
	return searchIn[models.Profile](s, ctx, "search_profiles", term, limit, "display_name")
}

func (s *Store) SearchUsersByEmail(ctx context.Context, term string, limit int) ([]models.User, error) {
	return searchIn[models.User](s, ctx, "search_users_by_email", term, limit, "email")
}
