package service

import (
	"context"
	"strings"

	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/validation"
)

const (
	maxQuestionTitleLen = 200
	maxQuestionBodyLen  = 10000
	maxAnswerLen        = 10000
	maxTags             = 8
	maxTagLen           = 32
)

type ForumService struct {
	store  storage.Storage
	notify *NotificationService
}

func NewForumService(store storage.Storage, notify *NotificationService) *ForumService {
	return &ForumService{store: store, notify: notify}
}

type CreateQuestionInput struct {
	Title string
	Body  string
	Tags  []string
}

type UpdateQuestionInput struct {
	Title *string
	Body  *string
	Tags  *[]string
}

func validateTags(tags []string) ([]string, error) {
	tags = cleanTags(tags)
	if len(tags) > maxTags {
		return nil, models.NewValidationError("Too many tags (max 8)")
	}
	for _, t := range tags {
		if err := validation.ValidateLength("tag", t, maxTagLen); err != nil {
			return nil, invalid(err)
		}
	}
	return tags, nil
}

func (s *ForumService) CreateQuestion(ctx context.Context, actor Actor, in CreateQuestionInput) (*models.Question, error) {
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateRequired("title", title, maxQuestionTitleLen); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateLength("body", in.Body, maxQuestionBodyLen); err != nil {
		return nil, invalid(err)
	}
	tags, err := validateTags(in.Tags)
	if err != nil {
		return nil, err
	}
	return s.store.CreateQuestion(ctx, storage.NewQuestion{
		AuthorID: actor.ID,
		Title:    title,
		Body:     strings.TrimSpace(in.Body),
		Tags:     tags,
	})
}

func (s *ForumService) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, models.NewNotFoundError("Question", id)
	}
	return q, nil
}

func (s *ForumService) ListQuestions(ctx context.Context, filter storage.QuestionFilter) ([]models.Question, error) {
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	return s.store.ListQuestions(ctx, filter)
}

func (s *ForumService) UpdateQuestion(ctx context.Context, actor Actor, id string, in UpdateQuestionInput) (*models.Question, error) {
	q, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.AuthorID != actor.ID {
		return nil, models.NewForbiddenError("Only the author can edit this question")
	}
	patch := storage.QuestionPatch{Title: trimmed(in.Title), Body: trimmed(in.Body)}
	if patch.Title != nil {
		if err := validation.ValidateRequired("title", *patch.Title, maxQuestionTitleLen); err != nil {
			return nil, invalid(err)
		}
	}
	if patch.Body != nil {
		if err := validation.ValidateLength("body", *patch.Body, maxQuestionBodyLen); err != nil {
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
	updated, err := s.store.UpdateQuestion(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFoundError("Question", id)
	}
	return updated, nil
}

func (s *ForumService) DeleteQuestion(ctx context.Context, actor Actor, id string) error {
	q, err := s.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if err := authorOrModerator(actor, q.AuthorID, "delete this question"); err != nil {
		return err
	}
	deleted, err := s.store.DeleteQuestion(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Question", id)
	}
	if actor.ID != q.AuthorID {
		auditRemoval(ctx, s.store, actor, models.NewTarget(models.TargetQuestion, id), q.AuthorID)
	}
	return nil
}

func (s *ForumService) ToggleQuestionUpvote(ctx context.Context, actor Actor, id string) (*models.Question, error) {
	q, err := s.store.ToggleQuestionUpvote(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, models.NewNotFoundError("Question", id)
	}
	return q, nil
}

// MarkSolved sets or clears the accepted answer. Only the question author
// may do this.
func (s *ForumService) MarkSolved(ctx context.Context, actor Actor, questionID string, answerID *string) (*models.Question, error) {
	q, err := s.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.AuthorID != actor.ID {
		return nil, models.NewForbiddenError("Only the question author can mark an answer as solved")
	}
	if answerID != nil && *answerID == "" {
		answerID = nil
	}

	var answer *models.Answer
	if answerID != nil {
		answer, err = s.store.GetAnswer(ctx, *answerID)
		if err != nil {
			return nil, err
		}
		if answer == nil || answer.QuestionID != questionID {
			return nil, models.NewValidationError("Answer does not belong to this question")
		}
	}

	updated, err := s.store.MarkQuestionSolved(ctx, questionID, answerID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFoundError("Question", questionID)
	}
	if answer != nil {
		s.notify.notifyQuietly(ctx, storage.NewNotification{
			UserID:  answer.AuthorID,
			Type:    models.NotifyAnswerAccepted,
			ActorID: actor.ID,
			Target:  models.NewTarget(models.TargetAnswer, answer.ID),
			Message: "accepted your answer",
		})
	}
	return updated, nil
}

func (s *ForumService) CreateAnswer(ctx context.Context, actor Actor, questionID, body string) (*models.Answer, error) {
	body = strings.TrimSpace(body)
	if err := validation.ValidateRequired("body", body, maxAnswerLen); err != nil {
		return nil, invalid(err)
	}
	q, err := s.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	answer, err := s.store.CreateAnswer(ctx, storage.NewAnswer{QuestionID: questionID, AuthorID: actor.ID, Body: body})
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return nil, models.NewNotFoundError("Question", questionID)
	}
	s.notify.notifyQuietly(ctx, storage.NewNotification{
		UserID:  q.AuthorID,
		Type:    models.NotifyAnswer,
		ActorID: actor.ID,
		Target:  models.NewTarget(models.TargetQuestion, q.ID),
		Message: "answered your question",
	})
	return answer, nil
}

func (s *ForumService) ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error) {
	if _, err := s.GetQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	return s.store.ListAnswers(ctx, questionID)
}

func (s *ForumService) DeleteAnswer(ctx context.Context, actor Actor, id string) error {
	answer, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return err
	}
	if answer == nil {
		return models.NewNotFoundError("Answer", id)
	}
	if err := authorOrModerator(actor, answer.AuthorID, "delete this answer"); err != nil {
		return err
	}
	deleted, err := s.store.DeleteAnswer(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Answer", id)
	}
	if actor.ID != answer.AuthorID {
		auditRemoval(ctx, s.store, actor, models.NewTarget(models.TargetAnswer, id), answer.AuthorID)
	}
	return nil
}

func (s *ForumService) ToggleAnswerUpvote(ctx context.Context, actor Actor, id string) (*models.Answer, error) {
	a, err := s.store.ToggleAnswerUpvote(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, models.NewNotFoundError("Answer", id)
	}
	return a, nil
}
