package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateQuestion(_ context.Context, in storage.NewQuestion) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	s.questions[q.ID] = q
	return cloneQuestion(q), nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	return cloneQuestion(q), nil
}

func (s *Store) ListQuestions(_ context.Context, f storage.QuestionFilter) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.questions, cloneQuestion, func(q *models.Question) bool {
		if f.AuthorID != "" && q.AuthorID != f.AuthorID {
			return false
		}
		if f.Tag != "" && !q.HasTag(f.Tag) {
			return false
		}
		if f.Solved != nil && (q.SolvedAnswerID != nil) != *f.Solved {
			return false
		}
		return true
	})
	newestFirst(out, func(q *models.Question) time.Time { return q.CreatedAt })
	return paginate(out, f.Page), nil
}

func (s *Store) UpdateQuestion(_ context.Context, id string, patch storage.QuestionPatch) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	if patch.Title != nil {
		q.Title = *patch.Title
	}
	if patch.Body != nil {
		q.Body = *patch.Body
	}
	if patch.Tags != nil {
		q.Tags = strList(*patch.Tags)
	}
	q.UpdatedAt = s.now()
	s.questions[id] = q
	return cloneQuestion(q), nil
}

func (s *Store) DeleteQuestion(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return false, nil
	}
	for aid, a := range s.answers {
		if a.QuestionID == id {
			delete(s.answers, aid)
		}
	}
	s.dropBookmarksLocked(models.NewTarget(models.TargetQuestion, id))
	delete(s.questions, id)
	return true, nil
}

func (s *Store) ToggleQuestionUpvote(_ context.Context, questionID, userID string) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[questionID]
	if !ok {
		return nil, nil
	}
	q.Upvotes = strList(storage.ToggleID(q.Upvotes, userID))
	s.questions[questionID] = q
	return cloneQuestion(q), nil
}

func (s *Store) MarkQuestionSolved(_ context.Context, questionID string, answerID *string) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[questionID]
	if !ok {
		return nil, nil
	}
	if answerID != nil {
		a, ok := s.answers[*answerID]
		if !ok || a.QuestionID != questionID {
			return nil, nil
		}
	}
	q.SolvedAnswerID = strPtr(answerID)
	q.UpdatedAt = s.now()
	s.questions[questionID] = q
	return cloneQuestion(q), nil
}

func (s *Store) CreateAnswer(_ context.Context, in storage.NewAnswer) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[in.QuestionID]
	if !ok {
		return nil, nil
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
	s.answers[a.ID] = a
	addCount(&q.AnswersCount, 1)
	s.questions[q.ID] = q
	return cloneAnswer(a), nil
}

func (s *Store) GetAnswer(_ context.Context, id string) (*models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[id]
	if !ok {
		return nil, nil
	}
	return cloneAnswer(a), nil
}

// ListAnswers returns answers oldest first, the order a thread reads in.
func (s *Store) ListAnswers(_ context.Context, questionID string) ([]models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.answers, cloneAnswer, func(a *models.Answer) bool { return a.QuestionID == questionID })
	oldestFirst(out, func(a *models.Answer) time.Time { return a.CreatedAt })
	return out, nil
}

func (s *Store) DeleteAnswer(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[id]
	if !ok {
		return false, nil
	}
	delete(s.answers, id)
	if q, ok := s.questions[a.QuestionID]; ok {
		addCount(&q.AnswersCount, -1)
		if q.SolvedAnswerID != nil && *q.SolvedAnswerID == id {
			q.SolvedAnswerID = nil
		}
		s.questions[q.ID] = q
	}
	return true, nil
}

func (s *Store) ToggleAnswerUpvote(_ context.Context, answerID, userID string) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[answerID]
	if !ok {
		return nil, nil
	}
	a.Upvotes = strList(storage.ToggleID(a.Upvotes, userID))
	s.answers[answerID] = a
	return cloneAnswer(a), nil
}
