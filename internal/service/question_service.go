package service

import (
	"context"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/internal/util"
	"english_club_backend/pkg/logger"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionCreateReq 创建题目
// swagger:model QuestionCreateReq
type QuestionCreateReq struct {
	Text          string   `json:"text" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2,dive,required"`
	CorrectAnswer *int     `json:"correct_answer" binding:"required,min=0"`
	Category      string   `json:"category" binding:"required,max=100"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=easy medium hard"`
	XPReward      *int     `json:"xp_reward" binding:"omitempty,min=0"`
	Explanation   string   `json:"explanation"`
}

// QuestionUpdateReq 部分更新
// swagger:model QuestionUpdateReq
type QuestionUpdateReq struct {
	Text          *string   `json:"text" binding:"omitempty,min=1"`
	Options       *[]string `json:"options" binding:"omitempty,min=2,dive,required"`
	CorrectAnswer *int      `json:"correct_answer" binding:"omitempty,min=0"`
	Category      *string   `json:"category" binding:"omitempty,max=100"`
	Difficulty    *string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	XPReward      *int      `json:"xp_reward" binding:"omitempty,min=0"`
	Explanation   *string   `json:"explanation"`
}

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	QuizCache    *QuizCache
}

func NewQuestionService(questionRepo *repository.QuestionRepository, cache *QuizCache) *QuestionService {
	return &QuestionService{QuestionRepo: questionRepo, QuizCache: cache}
}

func (s *QuestionService) List(ctx context.Context, page, limit int) ([]model.Question, int64, error) {
	return s.QuestionRepo.List(ctx, page, limit)
}

func (s *QuestionService) Create(ctx context.Context, req QuestionCreateReq) (*model.Question, error) {
	if err := checkCorrectAnswer(*req.CorrectAnswer, len(req.Options)); err != nil {
		return nil, err
	}

	q := &model.Question{
		Text:          req.Text,
		Options:       datatypes.JSONSlice[string](req.Options),
		CorrectAnswer: *req.CorrectAnswer,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
		Explanation:   req.Explanation,
	}
	if req.XPReward != nil {
		q.XPReward = *req.XPReward
	}
	if err := s.QuestionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Update(ctx context.Context, id uint, req QuestionUpdateReq) (*model.Question, error) {
	q, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Text != nil {
		q.Text = *req.Text
	}
	if req.Options != nil {
		q.Options = datatypes.JSONSlice[string](*req.Options)
	}
	if req.CorrectAnswer != nil {
		q.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Category != nil {
		q.Category = *req.Category
	}
	if req.Difficulty != nil {
		q.Difficulty = *req.Difficulty
	}
	if req.XPReward != nil {
		q.XPReward = *req.XPReward
	}
	if req.Explanation != nil {
		q.Explanation = *req.Explanation
	}
	if err := checkCorrectAnswer(q.CorrectAnswer, len(q.Options)); err != nil {
		return nil, err
	}

	if err := s.QuestionRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	s.invalidateQuizzes(ctx, id)
	return q, nil
}

func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	// 先取关联测验，删除后关联会被清除
	quizIDs, _ := s.QuestionRepo.QuizIDs(ctx, id)
	if err := s.QuestionRepo.Delete(ctx, id); err != nil {
		return err
	}
	for _, quizID := range quizIDs {
		s.QuizCache.Invalidate(ctx, quizID)
	}
	return nil
}

func (s *QuestionService) find(ctx context.Context, id uint) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) invalidateQuizzes(ctx context.Context, questionID uint) {
	quizIDs, err := s.QuestionRepo.QuizIDs(ctx, questionID)
	if err != nil {
		logger.Log.Warn("Failed to load quizzes for question", zap.Uint("question_id", questionID), zap.Error(err))
		return
	}
	for _, quizID := range quizIDs {
		s.QuizCache.Invalidate(ctx, quizID)
	}
}

// checkCorrectAnswer 正确答案必须是有效的选项下标
func checkCorrectAnswer(correct, optionCount int) error {
	if correct >= 0 && correct < optionCount {
		return nil
	}
	verr := util.NewValidationError()
	verr.Add("correct_answer", "The correct_answer field must reference one of the options.")
	return verr
}
