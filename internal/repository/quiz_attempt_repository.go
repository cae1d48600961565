package repository

import (
	"context"
	"english_club_backend/internal/model"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) WithTx(tx *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: tx}
}

// Create 违反 (user_id, quiz_id) 唯一约束时返回 gorm.ErrDuplicatedKey
func (r *QuizAttemptRepository) Create(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Omit("Answers").Create(attempt).Error
}

func (r *QuizAttemptRepository) CreateAnswers(ctx context.Context, answers []model.QuizAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&answers).Error
}

// FindByUserAndQuiz 未找到时返回 nil, nil
func (r *QuizAttemptRepository) FindByUserAndQuiz(ctx context.Context, userID, quizID uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *QuizAttemptRepository) FindByID(ctx context.Context, id uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	if err := r.DB.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// LockByID 行锁读取（SQLite 下忽略锁）
func (r *QuizAttemptRepository) LockByID(ctx context.Context, id uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *QuizAttemptRepository) GetAnswers(ctx context.Context, attemptID uint) ([]model.QuizAnswer, error) {
	var answers []model.QuizAnswer
	err := r.DB.WithContext(ctx).
		Where("quiz_attempt_id = ?", attemptID).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}

// UpdateResult 只更新成绩相关字段
func (r *QuizAttemptRepository) UpdateResult(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Model(&model.QuizAttempt{}).
		Where("id = ?", attempt.ID).
		Updates(map[string]interface{}{
			"score":            attempt.Score,
			"correct_answers":  attempt.CorrectAnswers,
			"total_questions":  attempt.TotalQuestions,
			"bonus":            attempt.Bonus,
			"completion_bonus": attempt.CompletionBonus,
			"xp_earned":        attempt.XPEarned,
		}).Error
}

// EachBatch 按 ID 顺序分批遍历，userID 为 0 表示全部用户
func (r *QuizAttemptRepository) EachBatch(ctx context.Context, userID uint, size int, fn func(batch []model.QuizAttempt) error) error {
	var batch []model.QuizAttempt
	query := r.DB.WithContext(ctx).Model(&model.QuizAttempt{}).Order("id ASC")
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	result := query.FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	})
	return result.Error
}
