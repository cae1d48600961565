package service

import (
	"context"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/internal/util"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// QuizQuestionInput 测验中的题目及其排序、分值
type QuizQuestionInput struct {
	ID        uint `json:"id" binding:"required"`
	SortOrder *int `json:"sort_order" binding:"omitempty,min=1"`
	Points    *int `json:"points" binding:"omitempty,min=0"`
}

// QuizCreateReq 创建测验
// swagger:model QuizCreateReq
type QuizCreateReq struct {
	Title       string              `json:"title" binding:"required,max=255"`
	Description string              `json:"description"`
	Category    string              `json:"category" binding:"max=100"`
	Difficulty  string              `json:"difficulty" binding:"required,oneof=easy medium hard"`
	TimeLimit   *int                `json:"time_limit" binding:"omitempty,min=0"`
	TotalXP     *int                `json:"total_xp" binding:"omitempty,min=0"`
	Questions   []QuizQuestionInput `json:"questions" binding:"omitempty,dive"`
}

// QuizUpdateReq 部分更新，Questions 非 nil 时整体替换题目
// swagger:model QuizUpdateReq
type QuizUpdateReq struct {
	Title       *string              `json:"title" binding:"omitempty,max=255"`
	Description *string              `json:"description"`
	Category    *string              `json:"category" binding:"omitempty,max=100"`
	Difficulty  *string              `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	TimeLimit   *int                 `json:"time_limit" binding:"omitempty,min=0"`
	TotalXP     *int                 `json:"total_xp" binding:"omitempty,min=0"`
	Questions   *[]QuizQuestionInput `json:"questions" binding:"omitempty,dive"`
}

type QuizService struct {
	DB           *gorm.DB
	QuizRepo     *repository.QuizRepository
	QuestionRepo *repository.QuestionRepository
	Cache        *QuizCache
}

func NewQuizService(db *gorm.DB, quizRepo *repository.QuizRepository, questionRepo *repository.QuestionRepository, cache *QuizCache) *QuizService {
	return &QuizService{
		DB:           db,
		QuizRepo:     quizRepo,
		QuestionRepo: questionRepo,
		Cache:        cache,
	}
}

func (s *QuizService) List(ctx context.Context) ([]*QuizView, error) {
	rows, err := s.QuizRepo.ListWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*QuizView, 0, len(rows))
	for i := range rows {
		v := NewQuizView(&rows[i].Quiz, false)
		v.Questions = nil
		v.QuestionCount = rows[i].QuestionsCount
		views = append(views, v)
	}
	return views, nil
}

// Get withAnswers 为 false 时去掉答案与解析
func (s *QuizService) Get(ctx context.Context, id uint, withAnswers bool) (*QuizView, error) {
	view, err := s.Cache.Get(ctx, id, func(ctx context.Context) (*QuizView, error) {
		quiz, err := s.QuizRepo.FindWithQuestions(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrQuizNotFound
			}
			return nil, err
		}
		return NewQuizView(quiz, true), nil
	})
	if err != nil {
		return nil, err
	}
	if withAnswers {
		return view, nil
	}
	return view.withoutAnswers(), nil
}

func (v *QuizView) withoutAnswers() *QuizView {
	out := *v
	out.Questions = make([]QuestionView, len(v.Questions))
	for i, q := range v.Questions {
		q.CorrectAnswer = nil
		q.Explanation = ""
		out.Questions[i] = q
	}
	return &out
}

func (s *QuizService) Create(ctx context.Context, req QuizCreateReq) (*QuizView, error) {
	links, err := s.buildLinks(ctx, req.Questions)
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		TimeLimit:   req.TimeLimit,
	}
	if req.TotalXP != nil {
		quiz.TotalXP = *req.TotalXP
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.QuizRepo.WithTx(tx).Create(ctx, quiz); err != nil {
			return err
		}
		return s.QuizRepo.WithTx(tx).SyncQuestions(ctx, quiz.ID, links)
	})
	if err != nil {
		return nil, err
	}
	return s.fresh(ctx, quiz.ID)
}

func (s *QuizService) Update(ctx context.Context, id uint, req QuizUpdateReq) (*QuizView, error) {
	quiz, err := s.QuizRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	var links []model.QuizQuestion
	if req.Questions != nil {
		if links, err = s.buildLinks(ctx, *req.Questions); err != nil {
			return nil, err
		}
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Category != nil {
		quiz.Category = *req.Category
	}
	if req.Difficulty != nil {
		quiz.Difficulty = *req.Difficulty
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = req.TimeLimit
	}
	if req.TotalXP != nil {
		quiz.TotalXP = *req.TotalXP
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.QuizRepo.WithTx(tx).Update(ctx, quiz); err != nil {
			return err
		}
		if req.Questions == nil {
			return nil
		}
		return s.QuizRepo.WithTx(tx).SyncQuestions(ctx, quiz.ID, links)
	})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(ctx, id)
	return s.fresh(ctx, id)
}

func (s *QuizService) Delete(ctx context.Context, id uint) error {
	if _, err := s.QuizRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuizNotFound
		}
		return err
	}
	if err := s.QuizRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, id)
	return nil
}

func (s *QuizService) fresh(ctx context.Context, id uint) (*QuizView, error) {
	quiz, err := s.QuizRepo.FindWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewQuizView(quiz, true), nil
}

// buildLinks 校验题目存在并填充默认排序与分值，同一题目重复出现时后者覆盖前者
func (s *QuizService) buildLinks(ctx context.Context, inputs []QuizQuestionInput) ([]model.QuizQuestion, error) {
	ids := make([]uint, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ID)
	}
	found, err := s.QuestionRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	verr := util.NewValidationError()
	index := make(map[uint]int, len(inputs))
	links := make([]model.QuizQuestion, 0, len(inputs))
	for i, in := range inputs {
		if !found[in.ID] {
			field := fmt.Sprintf("questions.%d.id", i)
			verr.Add(field, fmt.Sprintf("The selected %s is invalid.", field))
			continue
		}
		link := model.QuizQuestion{QuestionID: in.ID, SortOrder: 1}
		if in.SortOrder != nil {
			link.SortOrder = *in.SortOrder
		}
		if in.Points != nil {
			link.Points = *in.Points
		}
		if pos, ok := index[in.ID]; ok {
			links[pos] = link
			continue
		}
		index[in.ID] = len(links)
		links = append(links, link)
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return links, nil
}
