package service

import (
	"context"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/pkg/logger"
	"english_club_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Credit 一次经验入账：Delta 为实际加到余额的部分，LedgerAmount 为流水记录的总额
type Credit struct {
	UserID       uint
	Source       string
	ReferenceID  uint
	Delta        int
	LedgerAmount int
	Description  string
}

// XPService 维护用户余额与经验流水的一致性
type XPService struct {
	DB          *gorm.DB
	UserRepo    *repository.UserRepository
	LedgerRepo  *repository.XPTransactionRepository
	Leaderboard *LeaderboardService
}

func NewXPService(db *gorm.DB, userRepo *repository.UserRepository, ledgerRepo *repository.XPTransactionRepository, leaderboard *LeaderboardService) *XPService {
	return &XPService{
		DB:          db,
		UserRepo:    userRepo,
		LedgerRepo:  ledgerRepo,
		Leaderboard: leaderboard,
	}
}

// ApplyTx 在调用方的事务内入账，余额只做原子累加
func (s *XPService) ApplyTx(ctx context.Context, tx *gorm.DB, credit Credit) error {
	if credit.Delta > 0 {
		if err := s.UserRepo.WithTx(tx).IncrementXP(ctx, credit.UserID, credit.Delta); err != nil {
			return err
		}
	}
	return s.LedgerRepo.WithTx(tx).Upsert(ctx, &model.XPTransaction{
		UserID:      credit.UserID,
		Source:      credit.Source,
		ReferenceID: credit.ReferenceID,
		Amount:      credit.LedgerAmount,
		Description: credit.Description,
	})
}

// Committed 事务提交后调用：记录指标并刷新排行榜
func (s *XPService) Committed(ctx context.Context, credit Credit) {
	if credit.Delta <= 0 {
		return
	}
	monitoring.XPAwarded.WithLabelValues(credit.Source).Add(float64(credit.Delta))
	if s.Leaderboard == nil {
		return
	}
	if err := s.Leaderboard.Refresh(ctx, credit.UserID); err != nil {
		logger.Log.Warn("Failed to refresh leaderboard",
			zap.Uint("user_id", credit.UserID),
			zap.Error(err),
		)
	}
}

// ListTransactions 当前用户的经验流水
func (s *XPService) ListTransactions(ctx context.Context, userID uint, page, limit int) ([]model.XPTransaction, int64, error) {
	return s.LedgerRepo.ListByUser(ctx, userID, page, limit)
}
