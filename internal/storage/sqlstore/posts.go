package sqlstore

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

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
	if err := s.conn(ctx).Create(&p).Error; err != nil {
		return nil, s.wrap("create_post", err)
	}
	return &p, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	p, err := take[models.Post](s.conn(ctx), "id = ?", id)
	return p, s.wrap("get_post", err)
}

func (s *Store) ListPosts(ctx context.Context, f storage.PostFilter) ([]models.Post, error) {
	q := s.conn(ctx).Order("created_at DESC")
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if len(f.AuthorIDs) > 0 {
		q = q.Where("author_id IN ?", f.AuthorIDs)
	}
	if f.CommunityID != "" {
		q = q.Where("community_id = ?", f.CommunityID)
	}
	out, err := findPage[models.Post](q, f.Page)
	return out, s.wrap("list_posts", err)
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch storage.PostPatch) (*models.Post, error) {
	updates := map[string]interface{}{}
	if patch.Text != nil {
		updates["text"] = *patch.Text
	}
	if patch.Media != nil {
		updates["media"] = strList(*patch.Media)
	}
	return patchRow[models.Post](s, ctx, "update_post", "id", id, updates)
}

func (s *Store) DeletePost(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.tx(ctx, "delete_post", func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := s.dropBookmarks(tx, models.NewTarget(models.TargetPost, id)); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func (s *Store) TogglePostLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	return toggleMember(s, ctx, "toggle_post_like", "likes", postID, userID,
		func(p *models.Post) *datatypes.JSONSlice[string] { return &p.Likes })
}

func (s *Store) CreateComment(ctx context.Context, in storage.NewComment) (*models.Comment, error) {
	var out *models.Comment
	err := s.tx(ctx, "create_comment", func(tx *gorm.DB) error {
		p, err := take[models.Post](tx, "id = ?", in.PostID)
		if err != nil || p == nil {
			return err
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
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		if err := adjust(tx, &models.Post{}, "comments_count", 1, "id = ?", in.PostID); err != nil {
			return err
		}
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c, err := take[models.Comment](s.conn(ctx), "id = ?", id)
	return c, s.wrap("get_comment", err)
}

func (s *Store) ListComments(ctx context.Context, postID string, page storage.Page) ([]models.Comment, error) {
	out, err := findPage[models.Comment](s.conn(ctx).Where("post_id = ?", postID).Order("created_at DESC"), page)
	return out, s.wrap("list_comments", err)
}

func (s *Store) DeleteComment(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.tx(ctx, "delete_comment", func(tx *gorm.DB) error {
		c, err := take[models.Comment](tx, "id = ?", id)
		if err != nil || c == nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return adjust(tx, &models.Post{}, "comments_count", -1, "id = ?", c.PostID)
	})
	return deleted, err
}
