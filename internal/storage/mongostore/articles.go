package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

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
	if _, err := s.c(colArticles).InsertOne(ctx, a); err != nil {
		return nil, s.wrap("create_article", err)
	}
	return &a, nil
}

func (s *Store) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	a, err := findOne[models.Article](ctx, s.c(colArticles), byID(id))
	return a, s.wrap("get_article", err)
}

func (s *Store) ListArticles(ctx context.Context, f storage.ArticleFilter) ([]models.Article, error) {
	filter := bson.M{}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}
	if f.AuthorID != "" {
		filter["author_id"] = f.AuthorID
	}
	if f.Tag != "" {
		filter["tags"] = exactFold(f.Tag)
	}
	out, err := findPage[models.Article](ctx, s.c(colArticles), filter, newestFirst, f.Page)
	return out, s.wrap("list_articles", err)
}

func (s *Store) UpdateArticle(ctx context.Context, id string, p storage.ArticlePatch) (*models.Article, error) {
	set := bson.M{}
	if p.Kind != nil {
		set["kind"] = *p.Kind
	}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Summary != nil {
		set["summary"] = *p.Summary
	}
	if p.Body != nil {
		set["body"] = *p.Body
	}
	if p.CoverURL != nil {
		set["cover_url"] = *p.CoverURL
	}
	if p.Tags != nil {
		set["tags"] = strList(*p.Tags)
	}
	return patch[models.Article](s, ctx, colArticles, "update_article", byID(id), set)
}

func (s *Store) DeleteArticle(ctx context.Context, id string) (bool, error) {
	res, err := s.c(colArticles).DeleteOne(ctx, byID(id))
	if err != nil {
		return false, s.wrap("delete_article", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	if _, err := s.c(colArticleComments).DeleteMany(ctx, bson.M{"article_id": id}); err != nil {
		return true, s.wrap("delete_article", err)
	}
	return true, s.wrap("delete_article", s.dropBookmarks(ctx, models.NewTarget(models.TargetArticle, id)))
}

func (s *Store) ToggleArticleLike(ctx context.Context, articleID, userID string) (*models.Article, error) {
	return toggle[models.Article](s, ctx, colArticles, "toggle_article_like", "likes", articleID, userID)
}

func (s *Store) CreateArticleComment(ctx context.Context, in storage.NewArticleComment) (*models.ArticleComment, error) {
	a, err := findOne[models.Article](ctx, s.c(colArticles), byID(in.ArticleID))
	if err != nil || a == nil {
		return nil, s.wrap("create_article_comment", err)
	}
	c := models.ArticleComment{
		ID:        storage.NewID(),
		ArticleID: in.ArticleID,
		AuthorID:  in.AuthorID,
		Text:      in.Text,
		CreatedAt: s.now(),
	}
	if _, err := s.c(colArticleComments).InsertOne(ctx, c); err != nil {
		return nil, s.wrap("create_article_comment", err)
	}
	if err := s.adjust(ctx, colArticles, byID(in.ArticleID), "comments_count", 1); err != nil {
		return nil, s.wrap("create_article_comment", err)
	}
	return &c, nil
}

func (s *Store) GetArticleComment(ctx context.Context, id string) (*models.ArticleComment, error) {
	c, err := findOne[models.ArticleComment](ctx, s.c(colArticleComments), byID(id))
	return c, s.wrap("get_article_comment", err)
}

func (s *Store) ListArticleComments(ctx context.Context, articleID string, page storage.Page) ([]models.ArticleComment, error) {
	out, err := findPage[models.ArticleComment](ctx, s.c(colArticleComments), bson.M{"article_id": articleID}, newestFirst, page)
	return out, s.wrap("list_article_comments", err)
}

func (s *Store) DeleteArticleComment(ctx context.Context, id string) (bool, error) {
	var c models.ArticleComment
	if ok, err := s.deleteOne(ctx, colArticleComments, byID(id), &c); !ok || err != nil {
		return false, s.wrap("delete_article_comment", err)
	}
	return true, s.wrap("delete_article_comment", s.adjust(ctx, colArticles, byID(c.ArticleID), "comments_count", -1))
}
