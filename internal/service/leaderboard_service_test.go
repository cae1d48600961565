package service

import (
	"english_club_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardRebuildsFromDatabase(t *testing.T) {
	mr, rdb := newTestRedis(t)
	env := newTestEnv(t, rdb)
	ctx := testCtx(t)
	env.createUser(t, "low", 10)
	high := env.createUser(t, "high", 500)
	env.createUser(t, "mid", 200)

	entries, err := env.leaderboard.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, high.ID, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "mid", entries[1].Username)

	members, err := mr.ZMembers("test:leaderboard")
	require.NoError(t, err)
	assert.Len(t, members, 3)
}

func TestLeaderboardRefreshAfterCredit(t *testing.T) {
	_, rdb := newTestRedis(t)
	env := newTestEnv(t, rdb)
	ctx := testCtx(t)
	leader := env.createUser(t, "leader", 100)
	climber := env.createUser(t, "climber", 0)
	require.NoError(t, env.leaderboard.Rebuild(ctx))

	q1 := env.createQuestion(t, 1, model.DifficultyEasy, 10)
	quiz := env.createQuiz(t, "Climb", q1)
	_, err := env.attemptSvc.SubmitAttempt(ctx, climber.ID, quiz.ID, []SubmittedAnswer{answer(q1.ID, 1)})
	require.NoError(t, err)

	entries, err := env.leaderboard.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, climber.ID, entries[0].UserID)
	assert.Equal(t, 160, entries[0].TotalXP)
	assert.Equal(t, leader.ID, entries[1].UserID)
}

func TestLeaderboardRebuildsAfterRedisDataLoss(t *testing.T) {
	mr, rdb := newTestRedis(t)
	env := newTestEnv(t, rdb)
	ctx := testCtx(t)
	env.createUser(t, "ann", 300)
	env.createUser(t, "bob", 200)
	zoe := env.createUser(t, "zoe", 0)
	require.NoError(t, env.leaderboard.Rebuild(ctx))

	mr.FlushAll()

	q1 := env.createQuestion(t, 1, model.DifficultyMedium, 20)
	quiz := env.createQuiz(t, "After flush", q1)
	_, err := env.attemptSvc.SubmitAttempt(ctx, zoe.ID, quiz.ID, []SubmittedAnswer{answer(q1.ID, 1)})
	require.NoError(t, err)

	members, err := mr.ZMembers("test:leaderboard")
	require.NoError(t, err)
	assert.Len(t, members, 3)

	entries, err := env.leaderboard.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "ann", entries[0].Username)
	assert.Equal(t, zoe.ID, entries[2].UserID)
	assert.Equal(t, 170, entries[2].TotalXP)

	// 标记键丢失但 ZSET 仍有部分成员时，查询也会重建
	mr.Del("test:leaderboard:built")
	mr.ZRem("test:leaderboard", "1")
	entries, err = env.leaderboard.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLeaderboardFallsBackWhenRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	env := newTestEnv(t, rdb)
	ctx := testCtx(t)
	env.createUser(t, "first", 300)
	env.createUser(t, "second", 200)
	mr.Close()

	entries, err := env.leaderboard.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Username)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestLeaderboardWithoutRedis(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "solo", 1)
	lb := NewLeaderboardService(nil, env.users, "unused")

	entries, err := lb.Top(testCtx(t), 5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NoError(t, lb.Refresh(testCtx(t), 1))
}
