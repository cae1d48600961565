package service

import (
	"context"
	"english_club_backend/internal/config"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/internal/util"
	"english_club_backend/pkg/logger"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const revokedTokenPrefix = "auth:revoked:"

// LoginReq 邮箱或用户名登录
// swagger:model LoginReq
type LoginReq struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginResult 登录结果
// swagger:model LoginResult
type LoginResult struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      *UserProfile `json:"user"`
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Redis    *redis.Client
	JWT      config.JWTConfig
}

func NewAuthService(userRepo *repository.UserRepository, rdb *redis.Client, jwtCfg config.JWTConfig) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Redis:    rdb,
		JWT:      jwtCfg,
	}
}

func (s *AuthService) Login(ctx context.Context, req LoginReq) (*LoginResult, error) {
	user, err := s.UserRepo.FindByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.JWT.Secret, s.JWT.ExpireTime())
	if err != nil {
		return nil, err
	}

	if err := s.UserRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		User:      NewUserProfile(user),
	}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Logout 将令牌 jti 加入黑名单直到其过期
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims) error {
	if s.Redis == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.Redis.Set(ctx, revokedTokenPrefix+claims.ID, "1", ttl).Err()
}

// IsRevoked 实现 middleware.RevocationChecker；Redis 故障时放行
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.Redis == nil || jti == "" {
		return false, nil
	}
	n, err := s.Redis.Exists(ctx, revokedTokenPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
