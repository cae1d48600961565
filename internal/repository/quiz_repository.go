package repository

import (
	"context"
	"english_club_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

// QuizListRow 列表行，附带题目数量
type QuizListRow struct {
	model.Quiz
	QuestionsCount int `json:"questionCount"`
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) WithTx(tx *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: tx}
}

func (r *QuizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Omit("Questions").Create(quiz).Error
}

func (r *QuizRepository) Update(ctx context.Context, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Omit("Questions").Save(quiz).Error
}

func (r *QuizRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&model.Quiz{}, id).Error
}

func (r *QuizRepository) FindByID(ctx context.Context, id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.DB.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// FindWithQuestions 预加载题目，按 sort_order 排序
func (r *QuizRepository) FindWithQuestions(ctx context.Context, id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("id ASC")
		}).
		Preload("Questions.Question").
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) ListWithCounts(ctx context.Context) ([]QuizListRow, error) {
	var rows []QuizListRow
	err := r.DB.WithContext(ctx).
		Model(&model.Quiz{}).
		Select("quizzes.*, (SELECT COUNT(*) FROM quiz_question qq JOIN questions q ON q.id = qq.question_id AND q.deleted_at IS NULL WHERE qq.quiz_id = quizzes.id) AS questions_count").
		Order("quizzes.created_at DESC").
		Order("quizzes.id DESC").
		Scan(&rows).Error
	return rows, err
}

// SyncQuestions 用 links 整体替换测验的题目关联
func (r *QuizRepository) SyncQuestions(ctx context.Context, quizID uint, links []model.QuizQuestion) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("quiz_id = ?", quizID).Delete(&model.QuizQuestion{}).Error; err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	for i := range links {
		links[i].QuizID = quizID
	}
	return db.Omit("Question").Create(&links).Error
}
