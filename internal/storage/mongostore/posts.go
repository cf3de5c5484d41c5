package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreatePost(ctx context.Context, in storage.NewPost) (*models.Post, error) {
	now := s.now()
	p := models.Post{
		ID:          storage.NewID(),
		AuthorID:    in.AuthorID,
		CommunityID: strPtr(in.CommunityID),
		Text:        in.Text,
		Media:       strList(in.Media),
		Likes:       strList(nil),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c(colPosts).InsertOne(ctx, p); err != nil {
		return nil, s.wrap("create_post", err)
	}
	return &p, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	p, err := findOne[models.Post](ctx, s.c(colPosts), byID(id))
	return p, s.wrap("get_post", err)
}

func (s *Store) ListPosts(ctx context.Context, f storage.PostFilter) ([]models.Post, error) {
	filter := bson.M{}
	if f.AuthorID != "" {
		filter["author_id"] = f.AuthorID
	}
	if len(f.AuthorIDs) > 0 {
		if f.AuthorID != "" {
			filter["$and"] = bson.A{bson.M{"author_id": bson.M{"$in": f.AuthorIDs}}}
		} else {
			filter["author_id"] = bson.M{"$in": f.AuthorIDs}
		}
	}
	if f.CommunityID != "" {
		filter["community_id"] = f.CommunityID
	}
	out, err := findPage[models.Post](ctx, s.c(colPosts), filter, newestFirst, f.Page)
	return out, s.wrap("list_posts", err)
}

func (s *Store) UpdatePost(ctx context.Context, id string, p storage.PostPatch) (*models.Post, error) {
	set := bson.M{}
	if p.Text != nil {
		set["text"] = *p.Text
	}
	if p.Media != nil {
		set["media"] = strList(*p.Media)
	}
	return patch[models.Post](s, ctx, colPosts, "update_post", byID(id), set)
}

func (s *Store) DeletePost(ctx context.Context, id string) (bool, error) {
	res, err := s.c(colPosts).DeleteOne(ctx, byID(id))
	if err != nil {
		return false, s.wrap("delete_post", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	if _, err := s.c(colComments).DeleteMany(ctx, bson.M{"post_id": id}); err != nil {
		return true, s.wrap("delete_post", err)
	}
	return true, s.wrap("delete_post", s.dropBookmarks(ctx, models.NewTarget(models.TargetPost, id)))
}

func (s *Store) TogglePostLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	return toggle[models.Post](s, ctx, colPosts, "toggle_post_like", "likes", postID, userID)
}

func (s *Store) CreateComment(ctx context.Context, in storage.NewComment) (*models.Comment, error) {
	parent, err := findOne[models.Post](ctx, s.c(colPosts), byID(in.PostID))
	if err != nil || parent == nil {
		return nil, s.wrap("create_comment", err)
	}
	now := s.now()
	c := models.Comment{
		ID:        storage.NewID(),
		PostID:    in.PostID,
		AuthorID:  in.AuthorID,
		Text:      in.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c(colComments).InsertOne(ctx, c); err != nil {
		return nil, s.wrap("create_comment", err)
	}
	if err := s.adjust(ctx, colPosts, byID(in.PostID), "comments_count", 1); err != nil {
		return nil, s.wrap("create_comment", err)
	}
	return &c, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c, err := findOne[models.Comment](ctx, s.c(colComments), byID(id))
	return c, s.wrap("get_comment", err)
}

func (s *Store) ListComments(ctx context.Context, postID string, page storage.Page) ([]models.Comment, error) {
	out, err := findPage[models.Comment](ctx, s.c(colComments), bson.M{"post_id": postID}, newestFirst, page)
	return out, s.wrap("list_comments", err)
}

func (s *Store) DeleteComment(ctx context.Context, id string) (bool, error) {
	var c models.Comment
	if ok, err := s.deleteOne(ctx, colComments, byID(id), &c); !ok || err != nil {
		return false, s.wrap("delete_comment", err)
	}
	return true, s.wrap("delete_comment", s.adjust(ctx, colPosts, byID(c.PostID), "comments_count", -1))
}
