package service

import (
	"context"
	"strings"

	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/validation"
)

const (
	maxArticleTitleLen = 200
	maxSummaryLen      = 500
	maxArticleBodyLen  = 50000
)

// ArticleService manages the knowledge hub. Only moderators and admins
// publish; everyone may like and comment.
type ArticleService struct {
	store  storage.Storage
	notify *NotificationService
}

func NewArticleService(store storage.Storage, notify *NotificationService) *ArticleService {
	return &ArticleService{store: store, notify: notify}
}

type CreateArticleInput struct {
	Kind     models.ArticleKind
	Title    string
	Summary  string
	Body     string
	CoverURL string
	Tags     []string
}

type UpdateArticleInput struct {
	Kind     *models.ArticleKind
	Title    *string
	Summary  *string
	Body     *string
	CoverURL *string
	Tags     *[]string
}

func (s *ArticleService) CreateArticle(ctx context.Context, actor Actor, in CreateArticleInput) (*models.Article, error) {
	if !actor.CanModerate() {
		return nil, models.NewForbiddenError("Only moderators can publish articles")
	}
	if !in.Kind.Valid() {
		return nil, models.NewValidationError("Invalid article kind")
	}
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateRequired("title", title, maxArticleTitleLen); err != nil {
		return nil, invalid(err)
	}
	body := strings.TrimSpace(in.Body)
	if err := validation.ValidateRequired("body", body, maxArticleBodyLen); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateLength("summary", in.Summary, maxSummaryLen); err != nil {
		return nil, invalid(err)
	}
	tags, err := validateTags(in.Tags)
	if err != nil {
		return nil, err
	}
	return s.store.CreateArticle(ctx, storage.NewArticle{
		AuthorID: actor.ID,
		Kind:     in.Kind,
		Title:    title,
		Summary:  strings.TrimSpace(in.Summary),
		Body:     body,
		CoverURL: strings.TrimSpace(in.CoverURL),
		Tags:     tags,
	})
}

func (s *ArticleService) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, models.NewNotFoundError("Article", id)
	}
	return a, nil
}

func (s *ArticleService) ListArticles(ctx context.Context, filter storage.ArticleFilter) ([]models.Article, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, models.NewValidationError("Invalid article kind")
	}
	return s.store.ListArticles(ctx, filter)
}

func (s *ArticleService) UpdateArticle(ctx context.Context, actor Actor, id string, in UpdateArticleInput) (*models.Article, error) {
	a, err := s.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorOrModerator(actor, a.AuthorID, "edit this article"); err != nil {
		return nil, err
	}
	patch := storage.ArticlePatch{
		Kind:     in.Kind,
		Title:    trimmed(in.Title),
		Summary:  trimmed(in.Summary),
		Body:     trimmed(in.Body),
		CoverURL: trimmed(in.CoverURL),
	}
	if patch.Kind != nil && !patch.Kind.Valid() {
		return nil, models.NewValidationError("Invalid article kind")
	}
	if patch.Title != nil {
		if err := validation.ValidateRequired("title", *patch.Title, maxArticleTitleLen); err != nil {
			return nil, invalid(err)
		}
	}
	if patch.Body != nil {
		if err := validation.ValidateRequired("body", *patch.Body, maxArticleBodyLen); err != nil {
			return nil, invalid(err)
		}
	}
	if patch.Summary != nil {
		if err := validation.ValidateLength("summary", *patch.Summary, maxSummaryLen); err != nil {
			return nil, invalid(err)
		}
	}
	if in.Tags != nil {
		tags, err := validateTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		patch.Tags = &tags
	}
	updated, err := s.store.UpdateArticle(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFoundError("Article", id)
	}
	return updated, nil
}

func (s *ArticleService) DeleteArticle(ctx context.Context, actor Actor, id string) error {
	a, err := s.GetArticle(ctx, id)
	if err != nil {
		return err
	}
	if err := authorOrModerator(actor, a.AuthorID, "delete this article"); err != nil {
		return err
	}
	deleted, err := s.store.DeleteArticle(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Article", id)
	}
	if actor.ID != a.AuthorID {
		auditRemoval(ctx, s.store, actor, models.NewTarget(models.TargetArticle, id), a.AuthorID)
	}
	return nil
}

func (s *ArticleService) ToggleLike(ctx context.Context, actor Actor, id string) (*models.Article, error) {
	a, err := s.store.ToggleArticleLike(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, models.NewNotFoundError("Article", id)
	}
	return a, nil
}

func (s *ArticleService) CreateComment(ctx context.Context, actor Actor, articleID, text string) (*models.ArticleComment, error) {
	text = strings.TrimSpace(text)
	if err := validation.ValidateRequired("text", text, maxCommentLen); err != nil {
		return nil, invalid(err)
	}
	a, err := s.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	comment, err := s.store.CreateArticleComment(ctx, storage.NewArticleComment{ArticleID: articleID, AuthorID: actor.ID, Text: text})
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, models.NewNotFoundError("Article", articleID)
	}
	s.notify.notifyQuietly(ctx, storage.NewNotification{
		UserID:  a.AuthorID,
		Type:    models.NotifyArticleComment,
		ActorID: actor.ID,
		Target:  models.NewTarget(models.TargetArticle, a.ID),
		Message: "commented on your article",
	})
	return comment, nil
}

func (s *ArticleService) ListComments(ctx context.Context, articleID string, page storage.Page) ([]models.ArticleComment, error) {
	if _, err := s.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.store.ListArticleComments(ctx, articleID, page)
}

func (s *ArticleService) DeleteComment(ctx context.Context, actor Actor, id string) error {
	comment, err := s.store.GetArticleComment(ctx, id)
	if err != nil {
		return err
	}
	if comment == nil {
		return models.NewNotFoundError("Comment", id)
	}
	if err := authorOrModerator(actor, comment.AuthorID, "delete this comment"); err != nil {
		return err
	}
	deleted, err := s.store.DeleteArticleComment(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Comment", id)
	}
	if actor.ID != comment.AuthorID {
		auditRemoval(ctx, s.store, actor, models.NewTarget(models.TargetArticleComment, id), comment.AuthorID)
	}
	return nil
}
