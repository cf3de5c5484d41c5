package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

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
	if _, err := s.c(colQuestions).InsertOne(ctx, q); err != nil {
		return nil, s.wrap("create_question", err)
	}
	return &q, nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	q, err := findOne[models.Question](ctx, s.c(colQuestions), byID(id))
	return q, s.wrap("get_question", err)
}

func (s *Store) ListQuestions(ctx context.Context, f storage.QuestionFilter) ([]models.Question, error) {
	filter := bson.M{}
	if f.AuthorID != "" {
		filter["author_id"] = f.AuthorID
	}
	if f.Tag != "" {
		filter["tags"] = exactFold(f.Tag)
	}
	if f.Solved != nil {
		if *f.Solved {
			filter["solved_answer_id"] = bson.M{"$ne": nil}
		} else {
			filter["solved_answer_id"] = nil
		}
	}
	out, err := findPage[models.Question](ctx, s.c(colQuestions), filter, newestFirst, f.Page)
	return out, s.wrap("list_questions", err)
}

func (s *Store) UpdateQuestion(ctx context.Context, id string, p storage.QuestionPatch) (*models.Question, error) {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Body != nil {
		set["body"] = *p.Body
	}
	if p.Tags != nil {
		set["tags"] = strList(*p.Tags)
	}
	return patch[models.Question](s, ctx, colQuestions, "update_question", byID(id), set)
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	if _, err := s.c(colAnswers).DeleteMany(ctx, bson.M{"question_id": id}); err != nil {
		return false, s.wrap("delete_question", err)
	}
	res, err := s.c(colQuestions).DeleteOne(ctx, byID(id))
	if err != nil {
		return false, s.wrap("delete_question", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	return true, s.wrap("delete_question", s.dropBookmarks(ctx, models.NewTarget(models.TargetQuestion, id)))
}

func (s *Store) ToggleQuestionUpvote(ctx context.Context, questionID, userID string) (*models.Question, error) {
	return toggle[models.Question](s, ctx, colQuestions, "toggle_question_upvote", "upvotes", questionID, userID)
}

func (s *Store) MarkQuestionSolved(ctx context.Context, questionID string, answerID *string) (*models.Question, error) {
	if answerID != nil {
		a, err := findOne[models.Answer](ctx, s.c(colAnswers), bson.M{"_id": *answerID, "question_id": questionID})
		if err != nil || a == nil {
			return nil, s.wrap("mark_question_solved", err)
		}
	}
	return patch[models.Question](s, ctx, colQuestions, "mark_question_solved", byID(questionID),
		bson.M{"solved_answer_id": strPtr(answerID)})
}

func (s *Store) CreateAnswer(ctx context.Context, in storage.NewAnswer) (*models.Answer, error) {
	q, err := findOne[models.Question](ctx, s.c(colQuestions), byID(in.QuestionID))
	if err != nil || q == nil {
		return nil, s.wrap("create_answer", err)
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
	if _, err := s.c(colAnswers).InsertOne(ctx, a); err != nil {
		return nil, s.wrap("create_answer", err)
	}
	if err := s.adjust(ctx, colQuestions, byID(in.QuestionID), "answers_count", 1); err != nil {
		return nil, s.wrap("create_answer", err)
	}
	return &a, nil
}

func (s *Store) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	a, err := findOne[models.Answer](ctx, s.c(colAnswers), byID(id))
	return a, s.wrap("get_answer", err)
}

// ListAnswers returns answers oldest first, the order a thread reads in.
func (s *Store) ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error) {
	out, err := findAll[models.Answer](ctx, s.c(colAnswers), bson.M{"question_id": questionID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	return out, s.wrap("list_answers", err)
}

func (s *Store) DeleteAnswer(ctx context.Context, id string) (bool, error) {
	var a models.Answer
	if ok, err := s.deleteOne(ctx, colAnswers, byID(id), &a); !ok || err != nil {
		return false, s.wrap("delete_answer", err)
	}
	if err := s.adjust(ctx, colQuestions, byID(a.QuestionID), "answers_count", -1); err != nil {
		return true, s.wrap("delete_answer", err)
	}
	_, err := s.c(colQuestions).UpdateOne(ctx,
		bson.M{"_id": a.QuestionID, "solved_answer_id": id},
		bson.M{"$set": bson.M{"solved_answer_id": nil}})
	return true, s.wrap("delete_answer", err)
}

func (s *Store) ToggleAnswerUpvote(ctx context.Context, answerID, userID string) (*models.Answer, error) {
	return toggle[models.Answer](s, ctx, colAnswers, "toggle_answer_upvote", "upvotes", answerID, userID)
}
