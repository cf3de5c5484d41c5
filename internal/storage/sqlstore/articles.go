package sqlstore

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateArticle(ctx context.Context, in storage.NewArticle) (*models.Article, error) {
	now := s.now()
	a := models.Article{
		ID:        storage.NewID(),
		AuthorID:  in.AuthorID,
		Kind:      in.Kind,
		Title:     in.Title,
		Summary:   in.Summary,
		Body:      in.Body,
		CoverURL:  in.CoverURL,
		Tags:      strList(in.Tags),
		Likes:     strList(nil),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conn(ctx).Create(&a).Error; err != nil {
		return nil, s.wrap("create_article", err)
	}
	return &a, nil
}

func (s *Store) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	a, err := take[models.Article](s.conn(ctx), "id = ?", id)
	return a, s.wrap("get_article", err)
}

func (s *Store) ListArticles(ctx context.Context, f storage.ArticleFilter) ([]models.Article, error) {
	q := s.conn(ctx).Order("created_at DESC")
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Tag != "" {
		q = q.Where(fmt.Sprintf(jsonArrayClause, "tags"), jsonElement(storage.NormalizeSlug(f.Tag)))
	}
	out, err := findPage[models.Article](q, f.Page)
	return out, s.wrap("list_articles", err)
}

func (s *Store) UpdateArticle(ctx context.Context, id string, patch storage.ArticlePatch) (*models.Article, error) {
	updates := map[string]interface{}{}
	if patch.Kind != nil {
		updates["kind"] = *patch.Kind
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Summary != nil {
		updates["summary"] = *patch.Summary
	}
	if patch.Body != nil {
		updates["body"] = *patch.Body
	}
	if patch.CoverURL != nil {
		updates["cover_url"] = *patch.CoverURL
	}
	if patch.Tags != nil {
		updates["tags"] = strList(*patch.Tags)
	}
	return patchRow[models.Article](s, ctx, "update_article", "id", id, updates)
}

func (s *Store) DeleteArticle(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.tx(ctx, "delete_article", func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleComment{}).Error; err != nil {
			return err
		}
		if err := s.dropBookmarks(tx, models.NewTarget(models.TargetArticle, id)); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Article{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func (s *Store) ToggleArticleLike(ctx context.Context, articleID, userID string) (*models.Article, error) {
	return toggleMember(s, ctx, "toggle_article_like", "likes", articleID, userID,
		func(a *models.Article) *datatypes.JSONSlice[string] { return &a.Likes })
}

func (s *Store) CreateArticleComment(ctx context.Context, in storage.NewArticleComment) (*models.ArticleComment, error) {
	var out *models.ArticleComment
	err := s.tx(ctx, "create_article_comment", func(tx *gorm.DB) error {
		a, err := take[models.Article](tx, "id = ?", in.ArticleID)
		if err != nil || a == nil {
			return err
		}
		c := models.ArticleComment{
			ID:        storage.NewID(),
			ArticleID: in.ArticleID,
			AuthorID:  in.AuthorID,
			Text:      in.Text,
			CreatedAt: s.now(),
		}
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		if err := adjust(tx, &models.Article{}, "comments_count", 1, "id = ?", in.ArticleID); err != nil {
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

func (s *Store) GetArticleComment(ctx context.Context, id string) (*models.ArticleComment, error) {
	c, err := take[models.ArticleComment](s.conn(ctx), "id = ?", id)
	return c, s.wrap("get_article_comment", err)
}

func (s *Store) ListArticleComments(ctx context.Context, articleID string, page storage.Page) ([]models.ArticleComment, error) {
	out, err := findPage[models.ArticleComment](
		s.conn(ctx).Where("article_id = ?", articleID).Order("created_at DESC"), page)
	return out, s.wrap("list_article_comments", err)
}

func (s *Store) DeleteArticleComment(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.tx(ctx, "delete_article_comment", func(tx *gorm.DB) error {
		c, err := take[models.ArticleComment](tx, "id = ?", id)
		if err != nil || c == nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.ArticleComment{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		deleted = true
		return adjust(tx, &models.Article{}, "comments_count", -1, "id = ?", c.ArticleID)
	})
	return deleted, err
}
