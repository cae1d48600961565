package repository

import (
	"context"
	"english_club_backend/internal/model"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type XPTransactionRepository struct {
	DB *gorm.DB
}

func NewXPTransactionRepository(db *gorm.DB) *XPTransactionRepository {
	return &XPTransactionRepository{DB: db}
}

func (r *XPTransactionRepository) WithTx(tx *gorm.DB) *XPTransactionRepository {
	return &XPTransactionRepository{DB: tx}
}

// FindBySourceAndReference 未找到时返回 nil, nil
func (r *XPTransactionRepository) FindBySourceAndReference(ctx context.Context, source string, referenceID uint) (*model.XPTransaction, error) {
	var entry model.XPTransaction
	err := r.DB.WithContext(ctx).
		Where("source = ? AND reference_id = ?", source, referenceID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert 以 (source, reference_id) 为键插入或覆盖金额与描述
func (r *XPTransactionRepository) Upsert(ctx context.Context, entry *model.XPTransaction) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "reference_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "amount", "description", "updated_at"}),
	}).Create(entry).Error
}

func (r *XPTransactionRepository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]model.XPTransaction, int64, error) {
	var entries []model.XPTransaction
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.XPTransaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}

// SumByUser 流水合计，用于核对余额
func (r *XPTransactionRepository) SumByUser(ctx context.Context, userID uint) (int, error) {
	var sum int
	err := r.DB.WithContext(ctx).Model(&model.XPTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}
