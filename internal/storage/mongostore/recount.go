package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"evcircle/internal/models"
)

// counter names a derived field and the relationship documents it counts.
type counter struct {
	collection string
	key        string
	field      string
	source     string
	groupBy    string
	match      bson.M
}

var counters = []counter{
	{colProfiles, "user_id", "followers_count", colFollows, "following_id", nil},
	{colProfiles, "user_id", "following_count", colFollows, "follower_id", nil},
	{colPosts, "_id", "comments_count", colComments, "post_id", nil},
	{colCommunities, "_id", "members_count", colMembers, "community_id", nil},
	{colStations, "_id", "bookmarks_count", colBookmarks, "target.id", bson.M{"target.kind": models.TargetStation}},
	{colQuestions, "_id", "answers_count", colAnswers, "question_id", nil},
	{colArticles, "_id", "comments_count", colArticleComments, "article_id", nil},
}

// RecountCounters zeroes every derived counter and rewrites it from a
// grouped count of its relationship documents.
func (s *Store) RecountCounters(ctx context.Context) error {
	for _, c := range counters {
		if err := s.recount(ctx, c); err != nil {
			return s.wrap("recount_counters", err)
		}
	}
	return nil
}

func (s *Store) recount(ctx context.Context, c counter) error {
	pipeline := mongo.Pipeline{}
	if c.match != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: c.match}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{"_id": "$" + c.groupBy, "n": bson.M{"$sum": 1}}}})

	cur, err := s.c(c.source).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	var groups []struct {
		ID string `bson:"_id"`
		N  int    `bson:"n"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return err
	}

	if _, err := s.c(c.collection).UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{c.field: 0}}); err != nil {
		return err
	}
	if len(groups) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(groups))
	for _, g := range groups {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{c.key: g.ID}).
			SetUpdate(bson.M{"$set": bson.M{c.field: g.N}}))
	}
	_, err = s.c(c.collection).BulkWrite(ctx, writes)
	return err
}
