package model

import (
	"time"
)

type UserRole string

const (
	Admin    UserRole = "admin"
	Staff    UserRole = "staff"
	Pengurus UserRole = "pengurus"
	Member   UserRole = "member"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string     `gorm:"size:255;not null" json:"name"`
	Username  string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email     string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"size:255;not null" json:"-"`
	Role      UserRole   `gorm:"size:20;default:'member';index" json:"role"`
	Avatar    string     `gorm:"size:255" json:"avatar"`
	Level     int        `gorm:"default:1" json:"level"`
	XP        int        `gorm:"column:xp;default:0" json:"xp"`             // 当前可用经验
	TotalXP   int        `gorm:"column:total_xp;default:0" json:"totalXP"` // 累计经验
	Streak    int        `gorm:"default:0" json:"streak"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
