package repository

import (
	"context"
	"english_club_backend/internal/model"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceRepository struct {
	DB *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

func (r *AttendanceRepository) WithTx(tx *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: tx}
}

// LockByUserAndDate 行锁读取当日记录，未找到时返回 nil, nil
func (r *AttendanceRepository) LockByUserAndDate(ctx context.Context, userID uint, date string) (*model.Attendance, error) {
	var a model.Attendance
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND date = ?", userID, date).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttendanceRepository) Save(ctx context.Context, a *model.Attendance) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(a).Error
}

func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]model.Attendance, error) {
	var records []model.Attendance
	err := r.DB.WithContext(ctx).
		Preload("User").
		Preload("Marker").
		Where("date = ?", date).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

func (r *AttendanceRepository) FindByID(ctx context.Context, id uint) (*model.Attendance, error) {
	var a model.Attendance
	if err := r.DB.WithContext(ctx).Preload("User").Preload("Marker").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
