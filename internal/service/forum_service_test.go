package service

import (
	"context"
	"testing"

	"evcircle/internal/models"
	"evcircle/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asker := f.user(t, "asker", models.RoleUser)
	helper := f.user(t, "helper", models.RoleUser)

	_, err := f.svc.Forum.CreateQuestion(ctx, asker, CreateQuestionInput{Title: " "})
	assertCode(t, err, models.CodeValidation)

	q, err := f.svc.Forum.CreateQuestion(ctx, asker, CreateQuestionInput{
		Title: "Winter range?", Body: "How much do I lose?", Tags: []string{"Winter", "range", "winter"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"winter", "range"}, []string(q.Tags))

	answer, err := f.svc.Forum.CreateAnswer(ctx, helper, q.ID, "About 20-30%")
	require.NoError(t, err)

	notes := unread(t, f, asker.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyAnswer, notes[0].Type)

	_, err = f.svc.Forum.MarkSolved(ctx, helper, q.ID, &answer.ID)
	assertCode(t, err, models.CodeForbidden)

	solved, err := f.svc.Forum.MarkSolved(ctx, asker, q.ID, &answer.ID)
	require.NoError(t, err)
	require.NotNil(t, solved.SolvedAnswerID)
	assert.Equal(t, answer.ID, *solved.SolvedAnswerID)
	assert.Len(t, unread(t, f, helper.ID), 1)

	listed, err := f.svc.Forum.ListQuestions(ctx, storage.QuestionFilter{Tag: " WINTER "})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	cleared, err := f.svc.Forum.MarkSolved(ctx, asker, q.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.SolvedAnswerID)
}

func TestMarkSolvedRejectsForeignAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asker := f.user(t, "asker", models.RoleUser)

	q1, err := f.svc.Forum.CreateQuestion(ctx, asker, CreateQuestionInput{Title: "One"})
	require.NoError(t, err)
	q2, err := f.svc.Forum.CreateQuestion(ctx, asker, CreateQuestionInput{Title: "Two"})
	require.NoError(t, err)
	a2, err := f.svc.Forum.CreateAnswer(ctx, asker, q2.ID, "answer to two")
	require.NoError(t, err)

	_, err = f.svc.Forum.MarkSolved(ctx, asker, q1.ID, &a2.ID)
	assertCode(t, err, models.CodeValidation)
}

func TestDeleteQuestionRemovesAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asker := f.user(t, "asker", models.RoleUser)
	helper := f.user(t, "helper", models.RoleUser)

	q, err := f.svc.Forum.CreateQuestion(ctx, asker, CreateQuestionInput{Title: "Cable?"})
	require.NoError(t, err)
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		a, err := f.svc.Forum.CreateAnswer(ctx, helper, q.ID, "answer")
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	assertCode(t, f.svc.Forum.DeleteQuestion(ctx, helper, q.ID), models.CodeForbidden)
	require.NoError(t, f.svc.Forum.DeleteQuestion(ctx, asker, q.ID))
	for _, id := range ids {
		a, err := f.store.GetAnswer(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, a)
	}
}

func TestUpvotesToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asker := f.user(t, "asker", models.RoleUser)
	voter := f.user(t, "voter", models.RoleUser)

	q, err := f.svc.Forum.CreateQuestion(ctx, asker, CreateQuestionInput{Title: "Vote me"})
	require.NoError(t, err)
	a, err := f.svc.Forum.CreateAnswer(ctx, asker, q.ID, "self answer")
	require.NoError(t, err)

	up, err := f.svc.Forum.ToggleQuestionUpvote(ctx, voter, q.ID)
	require.NoError(t, err)
	assert.Contains(t, up.Upvotes, voter.ID)
	down, err := f.svc.Forum.ToggleQuestionUpvote(ctx, voter, q.ID)
	require.NoError(t, err)
	assert.NotContains(t, down.Upvotes, voter.ID)

	ans, err := f.svc.Forum.ToggleAnswerUpvote(ctx, voter, a.ID)
	require.NoError(t, err)
	assert.Contains(t, ans.Upvotes, voter.ID)

	_, err = f.svc.Forum.ToggleAnswerUpvote(ctx, voter, "missing")
	assertCode(t, err, models.CodeNotFound)

	assertCode(t, f.svc.Forum.DeleteAnswer(ctx, voter, a.ID), models.CodeForbidden)
	require.NoError(t, f.svc.Forum.DeleteAnswer(ctx, asker, a.ID))
}
