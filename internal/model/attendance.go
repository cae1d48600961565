package model

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
)

// Attendance 每人每天一条出勤记录
// swagger:model Attendance
type Attendance struct {
	BaseModel
	UserID    uint   `gorm:"not null;uniqueIndex:idx_attendance_user_date" json:"userId"`
	Date      string `gorm:"size:10;not null;uniqueIndex:idx_attendance_user_date;index" json:"date"` // YYYY-MM-DD
	Status    string `gorm:"size:10;not null" json:"status"`
	MarkedBy  uint   `gorm:"index" json:"markedBy"`
	Notes     string `gorm:"type:text" json:"notes"`
	XPAwarded int    `gorm:"column:xp_awarded;default:0" json:"xpAwarded"`

	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Marker *User `gorm:"foreignKey:MarkedBy" json:"marker,omitempty"`
}

func (Attendance) TableName() string {
	return "attendances"
}
