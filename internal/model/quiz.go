package model

import "time"

// swagger:model Quiz
type Quiz struct {
	BaseModel

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:100" json:"category"`
	Difficulty  string `gorm:"size:10;default:'easy'" json:"difficulty"`
	TimeLimit   *int   `json:"timeLimit"` // 分钟
	TotalXP     int    `gorm:"column:total_xp;default:0" json:"totalXP"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"-"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion 测验与题目的关联（排序与分值独立于题目本身的 xp_reward）
type QuizQuestion struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	QuizID     uint      `gorm:"not null;uniqueIndex:idx_quiz_question" json:"quizId"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_quiz_question;index" json:"questionId"`
	SortOrder  int       `gorm:"default:1" json:"sortOrder"`
	Points     int       `gorm:"default:0" json:"points"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Question Question `gorm:"foreignKey:QuestionID" json:"question"`
}

func (QuizQuestion) TableName() string {
	return "quiz_question"
}

// OrderedQuestions 按关联顺序返回题目
func (q *Quiz) OrderedQuestions() []Question {
	questions := make([]Question, 0, len(q.Questions))
	for _, qq := range q.Questions {
		if qq.Question.ID == 0 {
			continue
		}
		questions = append(questions, qq.Question)
	}
	return questions
}
