package service

import (
	"context"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/pkg/logger"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const leaderboardWarmSize = 1000

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"userId"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Level    int    `json:"level"`
	TotalXP  int    `json:"totalXP"`
}

// LeaderboardService 基于 Redis ZSET 的累计经验排行，Redis 不可用时回退数据库
type LeaderboardService struct {
	Redis    *redis.Client
	UserRepo *repository.UserRepository
	Key      string
}

func NewLeaderboardService(rdb *redis.Client, userRepo *repository.UserRepository, key string) *LeaderboardService {
	return &LeaderboardService{
		Redis:    rdb,
		UserRepo: userRepo,
		Key:      key,
	}
}

func (s *LeaderboardService) builtKey() string {
	return s.Key + ":built"
}

// built 标记键随 Rebuild 写入，丢失说明 ZSET 不再完整
func (s *LeaderboardService) built(ctx context.Context) (bool, error) {
	n, err := s.Redis.Exists(ctx, s.builtKey()).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Refresh 以数据库中的 total_xp 覆盖该用户的分数；排行榜数据丢失时整体重建
func (s *LeaderboardService) Refresh(ctx context.Context, userID uint) error {
	if s.Redis == nil {
		return nil
	}
	ok, err := s.built(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return s.Rebuild(ctx)
	}
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.Redis.ZAdd(ctx, s.Key, &redis.Z{
		Score:  float64(user.TotalXP),
		Member: strconv.FormatUint(uint64(user.ID), 10),
	}).Err()
}

// Rebuild 用数据库前 N 名重建排行榜
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	users, err := s.UserRepo.FindTopByTotalXP(ctx, leaderboardWarmSize)
	if err != nil {
		return err
	}
	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, s.Key)
	if len(users) > 0 {
		members := make([]*redis.Z, 0, len(users))
		for _, u := range users {
			members = append(members, &redis.Z{
				Score:  float64(u.TotalXP),
				Member: strconv.FormatUint(uint64(u.ID), 10),
			})
		}
		pipe.ZAdd(ctx, s.Key, members...)
	}
	pipe.Set(ctx, s.builtKey(), "1", 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	entries, err := s.topFromRedis(ctx, limit)
	if err == nil {
		return entries, nil
	}
	if s.Redis != nil {
		logger.Log.Warn("Leaderboard falling back to database", zap.Error(err))
	}

	users, err := s.UserRepo.FindTopByTotalXP(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries = make([]LeaderboardEntry, 0, len(users))
	for i := range users {
		entries = append(entries, newLeaderboardEntry(i+1, &users[i]))
	}
	return entries, nil
}

func (s *LeaderboardService) topFromRedis(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if s.Redis == nil {
		return nil, redis.Nil
	}

	ok, err := s.built(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := s.Rebuild(ctx); err != nil {
			return nil, err
		}
	}

	scores, err := s.Redis.ZRevRangeWithScores(ctx, s.Key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(scores))
	for _, z := range scores {
		member, _ := z.Member.(string)
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}

	users, err := s.UserRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	entries := make([]LeaderboardEntry, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			// 用户已删除
			continue
		}
		entries = append(entries, newLeaderboardEntry(len(entries)+1, u))
	}
	return entries, nil
}

func newLeaderboardEntry(rank int, u *model.User) LeaderboardEntry {
	return LeaderboardEntry{
		Rank:     rank,
		UserID:   u.ID,
		Name:     u.Name,
		Username: u.Username,
		Avatar:   u.Avatar,
		Level:    u.Level,
		TotalXP:  u.TotalXP,
	}
}
