package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateQuestion(ctx context.Context, in storage.NewQuestion) (*models.Question, error) {
	now := s.now()
	q := models.Question{
		ID:        storage.NewID(),
		AuthorID:  in.AuthorID,
		Title:     in.Title,
		Body:      in.Body,
		Tags:      strList(in.Tags),
		Upvotes:   strList(nil),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conn(ctx).Create(&q).Error; err != nil {
		return nil, s.wrap("create_question", err)
	}
	return &q, nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	q, err := take[models.Question](s.conn(ctx), "id = ?", id)
	return q, s.wrap("get_question", err)
}

func (s *Store) ListQuestions(ctx context.Context, f storage.QuestionFilter) ([]models.Question, error) {
	q := s.conn(ctx).Order("created_at DESC")
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Tag != "" {
		q = q.Where(fmt.Sprintf(jsonArrayClause, "tags"), jsonElement(strings.TrimSpace(f.Tag)))
	}
	if f.Solved != nil {
		if *f.Solved {
			q = q.Where("solved_answer_id IS NOT NULL")
		} else {
			q = q.Where("solved_answer_id IS NULL")
		}
	}
	out, err := findPage[models.Question](q, f.Page)
	return out, s.wrap("list_questions", err)
}

func (s *Store) UpdateQuestion(ctx context.Context, id string, patch storage.QuestionPatch) (*models.Question, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Body != nil {
		updates["body"] = *patch.Body
	}
	if patch.Tags != nil {
		updates["tags"] = strList(*patch.Tags)
	}
	return patchRow[models.Question](s, ctx, "update_question", "id", id, updates)
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.tx(ctx, "delete_question", func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := s.dropBookmarks(tx, models.NewTarget(models.TargetQuestion, id)); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Question{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func (s *Store) ToggleQuestionUpvote(ctx context.Context, questionID, userID string) (*models.Question, error) {
	return toggleMember(s, ctx, "toggle_question_upvote", "upvotes", questionID, userID,
		func(q *models.Question) *datatypes.JSONSlice[string] { return &q.Upvotes })
}

func (s *Store) MarkQuestionSolved(ctx context.Context, questionID string, answerID *string) (*models.Question, error) {
	var out *models.Question
	err := s.tx(ctx, "mark_question_solved", func(tx *gorm.DB) error {
		if answerID != nil {
			a, err := take[models.Answer](tx, "id = ? AND question_id = ?", *answerID, questionID)
			if err != nil || a == nil {
				return err
			}
		}
		res := tx.Model(&models.Question{}).Where("id = ?", questionID).Updates(map[string]interface{}{
			"solved_answer_id": strPtr(answerID),
			"updated_at":       s.now(),
		})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		var err error
		out, err = take[models.Question](tx, "id = ?", questionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateAnswer(ctx context.Context, in storage.NewAnswer) (*models.Answer, error) {
	var out *models.Answer
	err := s.tx(ctx, "create_answer", func(tx *gorm.DB) error {
		q, err := take[models.Question](tx, "id = ?", in.QuestionID)
		if err != nil || q == nil {
			return err
		}
		now := s.now()
		a := models.Answer{
			ID:         storage.NewID(),
			QuestionID: in.QuestionID,
			AuthorID:   in.AuthorID,
			Body:       in.Body,
			Upvotes:    strList(nil),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		if err := adjust(tx, &models.Question{}, "answers_count", 1, "id = ?", in.QuestionID); err != nil {
			return err
		}
		out = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	a, err := take[models.Answer](s.conn(ctx), "id = ?", id)
	return a, s.wrap("get_answer", err)
}

// ListAnswers returns answers oldest first, the order a thread reads in.
func (s *Store) ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error) {
	out, err := findAll[models.Answer](s.conn(ctx).Where("question_id = ?", questionID).Order("created_at ASC"))
	return out, s.wrap("list_answers", err)
}

func (s *Store) DeleteAnswer(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.tx(ctx, "delete_answer", func(tx *gorm.DB) error {
		a, err := take[models.Answer](tx, "id = ?", id)
		if err != nil || a == nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Answer{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		deleted = true
		if err := adjust(tx, &models.Question{}, "answers_count", -1, "id = ?", a.QuestionID); err != nil {
			return err
		}
		return tx.Model(&models.Question{}).
			Where("id = ? AND solved_answer_id = ?", a.QuestionID, id).
			UpdateColumn("solved_answer_id", nil).Error
	})
	return deleted, err
}

func (s *Store) ToggleAnswerUpvote(ctx context.Context, answerID, userID string) (*models.Answer, error) {
	return toggleMember(s, ctx, "toggle_answer_upvote", "upvotes", answerID, userID,
		func(a *models.Answer) *datatypes.JSONSlice[string] { return &a.Upvotes })
}
