package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"evcircle/internal/models"
)

// counter describes one derived column and the correlated subquery that
// recomputes it.
type counter struct {
	table  string
	column string
	source string
	where  string
	args   []interface{}
}

var counters = []counter{
	{table: "profiles", column: "followers_count", source: "user_follows", where: "user_follows.following_id = profiles.user_id"},
	{table: "profiles", column: "following_count", source: "user_follows", where: "user_follows.follower_id = profiles.user_id"},
	{table: "posts", column: "comments_count", source: "comments", where: "comments.post_id = posts.id"},
	{table: "communities", column: "members_count", source: "community_members", where: "community_members.community_id = communities.id"},
	{
		table: "stations", column: "bookmarks_count", source: "bookmarks",
		where: "bookmarks.target_id = stations.id AND bookmarks.target_kind = ?",
		args:  []interface{}{models.TargetStation},
	},
	{table: "questions", column: "answers_count", source: "answers", where: "answers.question_id = questions.id"},
	{table: "articles", column: "comments_count", source: "article_comments", where: "article_comments.article_id = articles.id"},
}

// RecountCounters rewrites every derived counter from its relationship rows
// in one transaction.
func (s *Store) RecountCounters(ctx context.Context) error {
	return s.tx(ctx, "recount_counters", func(tx *gorm.DB) error {
		for _, c := range counters {
			sql := "UPDATE " + c.table + " SET " + c.column +
				" = (SELECT COUNT(*) FROM " + c.source + " WHERE " + c.where + ")"
			if err := tx.Exec(sql, c.args...).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
