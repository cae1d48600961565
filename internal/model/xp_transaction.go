package model

import "time"

const (
	XPSourceQuizAttempt = "quiz_attempt"
	XPSourceAttendance  = "attendance"
	XPSourceManual      = "manual"
)

// XPTransaction 经验流水，(source, reference_id) 唯一，只增不删
// swagger:model XPTransaction
type XPTransaction struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	Source      string    `gorm:"size:50;not null;uniqueIndex:idx_xp_source_reference" json:"source"`
	ReferenceID uint      `gorm:"not null;uniqueIndex:idx_xp_source_reference" json:"referenceId"`
	Amount      int       `gorm:"not null" json:"amount"` // 可为负数（人工调整）
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (XPTransaction) TableName() string {
	return "xp_transactions"
}
