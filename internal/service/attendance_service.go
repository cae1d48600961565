package service

import (
	"context"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/internal/util"
	"english_club_backend/pkg/logger"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttendanceReq 记录出勤
// swagger:model AttendanceReq
type AttendanceReq struct {
	UserID uint   `json:"user_id" binding:"required"`
	Status string `json:"status" binding:"required,oneof=present absent late"`
	Date   string `json:"date" binding:"required,datetime=2006-01-02"`
	Notes  string `json:"notes"`
}

type AttendanceService struct {
	DB             *gorm.DB
	AttendanceRepo *repository.AttendanceRepository
	UserRepo       *repository.UserRepository
	LedgerRepo     *repository.XPTransactionRepository
	XP             *XPService
	Rules          *RulesHolder
}

func NewAttendanceService(
	db *gorm.DB,
	attendanceRepo *repository.AttendanceRepository,
	userRepo *repository.UserRepository,
	ledgerRepo *repository.XPTransactionRepository,
	xp *XPService,
	rules *RulesHolder,
) *AttendanceService {
	return &AttendanceService{
		DB:             db,
		AttendanceRepo: attendanceRepo,
		UserRepo:       userRepo,
		LedgerRepo:     ledgerRepo,
		XP:             xp,
		Rules:          rules,
	}
}

// List date 为空时取今天
func (s *AttendanceService) List(ctx context.Context, date string) ([]model.Attendance, string, error) {
	if date == "" {
		date = time.Now().Format(util.DateFormat)
	}
	records, err := s.AttendanceRepo.ListByDate(ctx, date)
	return records, date, err
}

// Mark 按 (用户, 日期) 新建或更新出勤记录；只补发尚未入账的经验，不会扣回
func (s *AttendanceService) Mark(ctx context.Context, markerID uint, req AttendanceReq) (*model.Attendance, error) {
	if _, err := s.UserRepo.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr := util.NewValidationError()
			verr.Add("user_id", "The selected user_id is invalid.")
			return nil, verr
		}
		return nil, err
	}

	xp := 0
	if req.Status == model.AttendancePresent {
		xp = s.Rules.Get().Attendance
	}

	var (
		record *model.Attendance
		credit Credit
		err    error
	)
	// 首次插入与并发插入冲突时重试一次，第二次会读到已存在的记录
	for attempt := 0; attempt < 2; attempt++ {
		record, credit, err = s.markTx(ctx, markerID, req, xp)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		logger.Log.Error("Failed to save attendance",
			zap.Uint("user_id", req.UserID),
			zap.String("date", req.Date),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", util.ErrAttendanceNotSaved, err)
	}
	s.XP.Committed(ctx, credit)

	return s.AttendanceRepo.FindByID(ctx, record.ID)
}

func (s *AttendanceService) markTx(ctx context.Context, markerID uint, req AttendanceReq, xp int) (*model.Attendance, Credit, error) {
	var (
		record *model.Attendance
		credit Credit
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.AttendanceRepo.WithTx(tx)
		existing, err := repo.LockByUserAndDate(ctx, req.UserID, req.Date)
		if err != nil {
			return err
		}

		record = existing
		if record == nil {
			record = &model.Attendance{UserID: req.UserID, Date: req.Date}
		}
		previous := record.XPAwarded
		record.Status = req.Status
		record.MarkedBy = markerID
		record.Notes = req.Notes
		if err := repo.Save(ctx, record); err != nil {
			return err
		}

		entry, err := s.LedgerRepo.WithTx(tx).FindBySourceAndReference(ctx, model.XPSourceAttendance, record.ID)
		if err != nil {
			return err
		}
		if entry != nil {
			previous = entry.Amount
		}

		delta := xp - previous
		if delta <= 0 {
			return nil
		}

		record.XPAwarded = xp
		if err := repo.Save(ctx, record); err != nil {
			return err
		}
		credit = Credit{
			UserID:       record.UserID,
			Source:       model.XPSourceAttendance,
			ReferenceID:  record.ID,
			Delta:        delta,
			LedgerAmount: xp,
			Description:  "Attendance on " + record.Date,
		}
		return s.XP.ApplyTx(ctx, tx, credit)
	})
	return record, credit, err
}
