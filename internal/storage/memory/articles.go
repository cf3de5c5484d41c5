package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateArticle(_ context.Context, in storage.NewArticle) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	s.articles[a.ID] = a
	return cloneArticle(a), nil
}

func (s *Store) GetArticle(_ context.Context, id string) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, nil
	}
	return cloneArticle(a), nil
}

func (s *Store) ListArticles(_ context.Context, f storage.ArticleFilter) ([]models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.articles, cloneArticle, func(a *models.Article) bool {
		if f.Kind != "" && a.Kind != f.Kind {
			return false
		}
		if f.AuthorID != "" && a.AuthorID != f.AuthorID {
			return false
		}
		if f.Tag != "" {
			for _, t := range a.Tags {
				if storage.NormalizeSlug(t) == storage.NormalizeSlug(f.Tag) {
					return true
				}
			}
			return false
		}
		return true
	})
	newestFirst(out, func(a *models.Article) time.Time { return a.CreatedAt })
	return paginate(out, f.Page), nil
}

func (s *Store) UpdateArticle(_ context.Context, id string, patch storage.ArticlePatch) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[id]
	if !ok {
		return nil, nil
	}
	if patch.Kind != nil {
		a.Kind = *patch.Kind
	}
	if patch.Title != nil {
		a.Title = *patch.Title
	}
	if patch.Summary != nil {
		a.Summary = *patch.Summary
	}
	if patch.Body != nil {
		a.Body = *patch.Body
	}
	if patch.CoverURL != nil {
		a.CoverURL = *patch.CoverURL
	}
	if patch.Tags != nil {
		a.Tags = strList(*patch.Tags)
	}
	a.UpdatedAt = s.now()
	s.articles[id] = a
	return cloneArticle(a), nil
}

func (s *Store) DeleteArticle(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[id]; !ok {
		return false, nil
	}
	for cid, c := range s.articleComments {
		if c.ArticleID == id {
			delete(s.articleComments, cid)
		}
	}
	s.dropBookmarksLocked(models.NewTarget(models.TargetArticle, id))
	delete(s.articles, id)
	return true, nil
}

func (s *Store) ToggleArticleLike(_ context.Context, articleID, userID string) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[articleID]
	if !ok {
		return nil, nil
	}
	a.Likes = strList(storage.ToggleID(a.Likes, userID))
	s.articles[articleID] = a
	return cloneArticle(a), nil
}

func (s *Store) CreateArticleComment(_ context.Context, in storage.NewArticleComment) (*models.ArticleComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[in.ArticleID]
	if !ok {
		return nil, nil
	}
	c := models.ArticleComment{
		ID:        storage.NewID(),
		ArticleID: in.ArticleID,
		AuthorID:  in.AuthorID,
		Text:      in.Text,
		CreatedAt: s.now(),
	}
	s.articleComments[c.ID] = c
	addCount(&a.CommentsCount, 1)
	s.articles[a.ID] = a
	return cloneArticleComment(c), nil
}

func (s *Store) GetArticleComment(_ context.Context, id string) (*models.ArticleComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.articleComments[id]
	if !ok {
		return nil, nil
	}
	return cloneArticleComment(c), nil
}

func (s *Store) ListArticleComments(_ context.Context, articleID string, page storage.Page) ([]models.ArticleComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.articleComments, cloneArticleComment, func(c *models.ArticleComment) bool { return c.ArticleID == articleID })
	newestFirst(out, func(c *models.ArticleComment) time.Time { return c.CreatedAt })
	return paginate(out, page), nil
}

func (s *Store) DeleteArticleComment(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.articleComments[id]
	if !ok {
		return false, nil
	}
	delete(s.articleComments, id)
	if a, ok := s.articles[c.ArticleID]; ok {
		addCount(&a.CommentsCount, -1)
		s.articles[a.ID] = a
	}
	return true, nil
}
