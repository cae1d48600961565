package model

import "time"

// QuizAttempt 每个用户对每个测验只有一条记录
// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel

	UserID          uint      `gorm:"not null;uniqueIndex:idx_attempt_user_quiz" json:"userId"`
	QuizID          uint      `gorm:"not null;uniqueIndex:idx_attempt_user_quiz;index" json:"quizId"`
	Score           int       `gorm:"default:0" json:"score"` // 答对题目的经验之和，不含奖励
	CorrectAnswers  int       `gorm:"default:0" json:"correctAnswers"`
	TotalQuestions  int       `gorm:"default:0" json:"totalQuestions"`
	Bonus           int       `gorm:"default:0" json:"bonus"` // 满分奖励
	CompletionBonus int       `gorm:"default:0" json:"completionBonus"`
	XPEarned        int       `gorm:"column:xp_earned;default:0" json:"xpEarned"`
	CompletedAt     time.Time `json:"completedAt"`

	Answers []QuizAnswer `gorm:"foreignKey:QuizAttemptID" json:"answers,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
