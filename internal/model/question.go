package model

import "gorm.io/datatypes"

// swagger:model Question
type Question struct {
	BaseModel

	Text          string                      `gorm:"type:text;not null" json:"text"`
	Options       datatypes.JSONSlice[string] `gorm:"not null" json:"options"`
	CorrectAnswer int                         `gorm:"not null;default:0" json:"correctAnswer"` // 从 0 开始的选项下标
	Category      string                      `gorm:"size:100;index" json:"category"`
	Difficulty    string                      `gorm:"size:10;default:'easy'" json:"difficulty"`
	XPReward      int                         `gorm:"column:xp_reward;default:0" json:"xpReward"`
	Explanation   string                      `gorm:"type:text" json:"explanation"`
}

func (Question) TableName() string {
	return "questions"
}
