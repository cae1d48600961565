package service

import (
	"context"
	"encoding/json"
	"english_club_backend/pkg/logger"
	"math/rand"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// QuizCache 缓存测验详情（含答案的完整视图），未命中时经 singleflight 回源
type QuizCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func NewQuizCache(client *redis.Client, ttl time.Duration) *QuizCache {
	return &QuizCache{client: client, ttl: ttl}
}

func quizCacheKey(id uint) string {
	return "quiz:" + strconv.FormatUint(uint64(id), 10) + ":detail"
}

// Get 先读缓存，缓存不可用时直接回源
func (c *QuizCache) Get(ctx context.Context, id uint, load func(ctx context.Context) (*QuizView, error)) (*QuizView, error) {
	if c == nil {
		return load(ctx)
	}
	if view, ok := c.read(ctx, id); ok {
		return view, nil
	}

	v, err, _ := c.group.Do(quizCacheKey(id), func() (interface{}, error) {
		// 回源结果由所有等待者共享，不随首个请求取消
		shared := context.WithoutCancel(ctx)
		if view, ok := c.read(shared, id); ok {
			return view, nil
		}
		view, err := load(shared)
		if err != nil {
			return nil, err
		}
		c.write(shared, id, view)
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*QuizView), nil
}

func (c *QuizCache) Invalidate(ctx context.Context, id uint) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, quizCacheKey(id)).Err(); err != nil {
		logger.Log.Warn("Failed to invalidate quiz cache", zap.Uint("quiz_id", id), zap.Error(err))
	}
}

func (c *QuizCache) read(ctx context.Context, id uint) (*QuizView, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, quizCacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("Quiz cache read failed", zap.Uint("quiz_id", id), zap.Error(err))
		}
		return nil, false
	}
	var view QuizView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, false
	}
	return &view, true
}

func (c *QuizCache) write(ctx context.Context, id uint, view *QuizView) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, quizCacheKey(id), raw, c.ttlWithJitter()).Err(); err != nil {
		logger.Log.Warn("Quiz cache write failed", zap.Uint("quiz_id", id), zap.Error(err))
	}
}

// ttlWithJitter 在 TTL 上增加最多 10% 的随机量，避免同时过期
func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return c.ttl + time.Duration(rand.Int63n(int64(c.ttl)/10+1))
}
