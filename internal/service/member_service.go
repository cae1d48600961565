package service

import (
	"context"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/internal/util"
	"errors"
	"io"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MemberCreateReq 新增成员
// swagger:model MemberCreateReq
type MemberCreateReq struct {
	Name     string `json:"name" binding:"required,max=255"`
	Username string `json:"username" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=member pengurus admin"`
	Avatar   string `json:"avatar"`
}

// MemberService 成员管理
type MemberService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
}

func NewMemberService(userRepo *repository.UserRepository, storage *StorageService) *MemberService {
	return &MemberService{UserRepo: userRepo, Storage: storage}
}

// List 只列出 member 与 pengurus
func (s *MemberService) List(ctx context.Context, page int) ([]model.User, int64, error) {
	return s.UserRepo.ListByRoles(ctx, []model.UserRole{model.Member, model.Pengurus}, page, util.DefaultPageSize)
}

func (s *MemberService) Create(ctx context.Context, req MemberCreateReq) (*model.User, error) {
	verr := util.NewValidationError()
	taken, err := s.UserRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		verr.Add("username", "The username has already been taken.")
	}
	registered, err := s.UserRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if registered {
		verr.Add("email", "The email has already been taken.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     model.UserRole(req.Role),
		Avatar:   req.Avatar,
		Level:    1,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			verr.Add("username", "The username has already been taken.")
			return nil, verr
		}
		return nil, err
	}
	return user, nil
}

// UpdateAvatar 上传头像并更新用户记录
func (s *MemberService) UpdateAvatar(ctx context.Context, userID uint, filename string, reader io.Reader, size int64, contentType string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	url, err := s.Storage.UploadAvatar(ctx, userID, filename, reader, size, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.UserRepo.UpdateAvatar(ctx, userID, url); err != nil {
		return nil, err
	}
	user.Avatar = url
	return user, nil
}
