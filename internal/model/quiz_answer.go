package model

// swagger:model QuizAnswer
type QuizAnswer struct {
	BaseModel
	QuizAttemptID  uint `gorm:"not null;index" json:"quizAttemptId"`
	QuestionID     uint `gorm:"not null;index" json:"questionId"`
	SelectedAnswer int  `json:"selectedAnswer"`
	IsCorrect      bool `gorm:"default:false" json:"isCorrect"`
	TimeTaken      int  `gorm:"default:0" json:"timeTaken"` // 秒
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
