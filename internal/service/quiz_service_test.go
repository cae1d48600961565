package service

import (
	"context"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/internal/util"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuizServices(env *testEnv, rdb *redis.Client) (*QuizService, *QuestionService) {
	cache := NewQuizCache(rdb, time.Minute)
	questionRepo := repository.NewQuestionRepository(env.db)
	quizRepo := repository.NewQuizRepository(env.db)
	return NewQuizService(env.db, quizRepo, questionRepo, cache), NewQuestionService(questionRepo, cache)
}

func intPtr(v int) *int { return &v }

func TestQuizCreateAndList(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx(t)
	quizzes, _ := newQuizServices(env, nil)
	q1 := env.createQuestion(t, 1, model.DifficultyEasy, 10)
	q2 := env.createQuestion(t, 2, model.DifficultyHard, 30)

	view, err := quizzes.Create(ctx, QuizCreateReq{
		Title:      "Grammar",
		Difficulty: model.DifficultyMedium,
		Questions: []QuizQuestionInput{
			{ID: q2.ID, SortOrder: intPtr(1), Points: intPtr(5)},
			{ID: q1.ID, SortOrder: intPtr(2)},
		},
	})
	require.NoError(t, err)
	require.Len(t, view.Questions, 2)
	assert.Equal(t, q2.ID, view.Questions[0].ID)
	assert.Equal(t, 5, view.Questions[0].Points)
	assert.Equal(t, 2, view.QuestionCount)

	// 软删除的题目不计入数量
	require.NoError(t, env.db.Delete(&model.Question{}, q1.ID).Error)
	list, err := quizzes.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].QuestionCount)
	assert.Nil(t, list[0].Questions)
}

func TestQuizCreateRejectsUnknownQuestion(t *testing.T) {
	env := newTestEnv(t, nil)
	quizzes, _ := newQuizServices(env, nil)

	_, err := quizzes.Create(testCtx(t), QuizCreateReq{
		Title:      "Broken",
		Difficulty: model.DifficultyEasy,
		Questions:  []QuizQuestionInput{{ID: 404}},
	})

	var verr *util.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "questions.0.id")
	assert.Equal(t, int64(0), env.count(t, &model.Quiz{}))
}

func TestQuizGetHidesAnswersForLearners(t *testing.T) {
	env := newTestEnv(t, nil)
	quizzes, _ := newQuizServices(env, nil)
	q1 := env.createQuestion(t, 3, model.DifficultyEasy, 10)
	quiz := env.createQuiz(t, "Hidden", q1)

	learner, err := quizzes.Get(testCtx(t), quiz.ID, false)
	require.NoError(t, err)
	require.Len(t, learner.Questions, 1)
	assert.Nil(t, learner.Questions[0].CorrectAnswer)
	assert.Empty(t, learner.Questions[0].Explanation)

	staff, err := quizzes.Get(testCtx(t), quiz.ID, true)
	require.NoError(t, err)
	require.NotNil(t, staff.Questions[0].CorrectAnswer)
	assert.Equal(t, 3, *staff.Questions[0].CorrectAnswer)

	_, err = quizzes.Get(testCtx(t), 404, false)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestQuizCacheServesUntilInvalidated(t *testing.T) {
	mr, rdb := newTestRedis(t)
	env := newTestEnv(t, rdb)
	ctx := testCtx(t)
	quizzes, questions := newQuizServices(env, rdb)
	q1 := env.createQuestion(t, 1, model.DifficultyEasy, 10)
	quiz := env.createQuiz(t, "Cached", q1)

	_, err := quizzes.Get(ctx, quiz.ID, false)
	require.NoError(t, err)
	assert.True(t, mr.Exists(quizCacheKey(quiz.ID)))

	// 直接改库，缓存仍返回旧值
	require.NoError(t, env.db.Model(&model.Quiz{}).Where("id = ?", quiz.ID).Update("title", "Changed").Error)
	cached, err := quizzes.Get(ctx, quiz.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Cached", cached.Title)

	title := "Renamed"
	_, err = quizzes.Update(ctx, quiz.ID, QuizUpdateReq{Title: &title})
	require.NoError(t, err)
	fresh, err := quizzes.Get(ctx, quiz.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fresh.Title)

	// 修改题目会让引用它的测验缓存失效
	text := "Updated question"
	_, err = questions.Update(ctx, q1.ID, QuestionUpdateReq{Text: &text})
	require.NoError(t, err)
	assert.False(t, mr.Exists(quizCacheKey(quiz.ID)))
}

func TestQuizCacheLoadsOnce(t *testing.T) {
	_, rdb := newTestRedis(t)
	cache := NewQuizCache(rdb, time.Minute)
	ctx := testCtx(t)

	calls := 0
	load := func(ctx context.Context) (*QuizView, error) {
		calls++
		return &QuizView{ID: 7, Title: "Loaded"}, nil
	}

	for i := 0; i < 3; i++ {
		view, err := cache.Get(ctx, 7, load)
		require.NoError(t, err)
		assert.Equal(t, "Loaded", view.Title)
	}
	assert.Equal(t, 1, calls)

	cache.Invalidate(ctx, 7)
	_, err := cache.Get(ctx, 7, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestQuizCacheLoadSurvivesCanceledCaller(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewQuizCache(rdb, time.Minute)

	canceled, cancel := context.WithCancel(testCtx(t))
	cancel()

	calls := 0
	load := func(ctx context.Context) (*QuizView, error) {
		calls++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &QuizView{ID: 9, Title: "Shared"}, nil
	}

	view, err := cache.Get(canceled, 9, load)
	require.NoError(t, err)
	assert.Equal(t, "Shared", view.Title)
	assert.True(t, mr.Exists(quizCacheKey(9)))

	_, err = cache.Get(testCtx(t), 9, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestQuizCacheWithoutRedisAlwaysLoads(t *testing.T) {
	var cache *QuizCache
	calls := 0
	load := func(ctx context.Context) (*QuizView, error) {
		calls++
		return &QuizView{ID: 1}, nil
	}

	_, err := cache.Get(testCtx(t), 1, load)
	require.NoError(t, err)
	_, err = NewQuizCache(nil, time.Minute).Get(testCtx(t), 1, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	cache.Invalidate(testCtx(t), 1)
}

func TestQuizUpdateReplacesQuestions(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx(t)
	quizzes, _ := newQuizServices(env, nil)
	q1 := env.createQuestion(t, 1, model.DifficultyEasy, 10)
	q2 := env.createQuestion(t, 1, model.DifficultyEasy, 10)
	quiz := env.createQuiz(t, "Swap", q1)

	view, err := quizzes.Update(ctx, quiz.ID, QuizUpdateReq{Questions: &[]QuizQuestionInput{{ID: q2.ID}}})
	require.NoError(t, err)
	require.Len(t, view.Questions, 1)
	assert.Equal(t, q2.ID, view.Questions[0].ID)
	assert.Equal(t, "Swap", view.Title)

	// 不传 questions 时保持原有题目
	desc := "kept"
	view, err = quizzes.Update(ctx, quiz.ID, QuizUpdateReq{Description: &desc})
	require.NoError(t, err)
	assert.Len(t, view.Questions, 1)

	require.NoError(t, quizzes.Delete(ctx, quiz.ID))
	assert.ErrorIs(t, quizzes.Delete(ctx, quiz.ID), util.ErrQuizNotFound)
}

func TestQuestionCreateChecksCorrectAnswer(t *testing.T) {
	env := newTestEnv(t, nil)
	_, questions := newQuizServices(env, nil)

	_, err := questions.Create(testCtx(t), QuestionCreateReq{
		Text:          "Pick",
		Options:       []string{"a", "b"},
		CorrectAnswer: intPtr(2),
		Category:      "grammar",
		Difficulty:    model.DifficultyEasy,
	})
	var verr *util.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "correct_answer")

	q, err := questions.Create(testCtx(t), QuestionCreateReq{
		Text:          "Pick",
		Options:       []string{"a", "b"},
		CorrectAnswer: intPtr(1),
		Category:      "grammar",
		Difficulty:    model.DifficultyEasy,
		XPReward:      intPtr(15),
	})
	require.NoError(t, err)
	assert.Equal(t, 15, q.XPReward)

	require.NoError(t, questions.Delete(testCtx(t), q.ID))
	assert.ErrorIs(t, questions.Delete(testCtx(t), q.ID), util.ErrQuestionNotFound)
}
