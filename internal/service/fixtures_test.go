package service

import (
	"context"
	"english_club_backend/internal/config"
	"english_club_backend/internal/model"
	"english_club_backend/internal/repository"
	"english_club_backend/pkg/database"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testXPConfig() config.XPConfig {
	return config.XPConfig{
		QuizCompletion: 50,
		PerfectScore:   100,
		Attendance:     30,
		DefaultRewards: map[string]int{
			model.DifficultyEasy:   10,
			model.DifficultyMedium: 20,
			model.DifficultyHard:   30,
		},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接保证所有语句落在同一个内存库
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

type testEnv struct {
	db          *gorm.DB
	rules       *RulesHolder
	users       *repository.UserRepository
	ledger      *repository.XPTransactionRepository
	attempts    *repository.QuizAttemptRepository
	xp          *XPService
	attemptSvc  *AttemptService
	attendance  *AttendanceService
	leaderboard *LeaderboardService
}

func newTestEnv(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	db := newTestDB(t)

	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)
	ledgerRepo := repository.NewXPTransactionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	rules := NewRulesHolder(testXPConfig())
	var leaderboard *LeaderboardService
	if rdb != nil {
		leaderboard = NewLeaderboardService(rdb, userRepo, "test:leaderboard")
	}
	xp := NewXPService(db, userRepo, ledgerRepo, leaderboard)

	return &testEnv{
		db:          db,
		rules:       rules,
		users:       userRepo,
		ledger:      ledgerRepo,
		attempts:    attemptRepo,
		xp:          xp,
		attemptSvc:  NewAttemptService(db, quizRepo, questionRepo, attemptRepo, ledgerRepo, userRepo, xp, rules),
		attendance:  NewAttendanceService(db, attendanceRepo, userRepo, ledgerRepo, xp, rules),
		leaderboard: leaderboard,
	}
}

func (e *testEnv) createUser(t *testing.T, username string, xp int) *model.User {
	t.Helper()
	u := &model.User{
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
		Password: "secret",
		Role:     model.Member,
		XP:       xp,
		TotalXP:  xp,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) createQuestion(t *testing.T, correct int, difficulty string, reward int) *model.Question {
	t.Helper()
	q := &model.Question{
		Text:          "Pick the right option",
		Options:       datatypes.JSONSlice[string]{"a", "b", "c", "d"},
		CorrectAnswer: correct,
		Difficulty:    difficulty,
		XPReward:      reward,
		Explanation:   "because",
	}
	require.NoError(t, e.db.Create(q).Error)
	return q
}

func (e *testEnv) createQuiz(t *testing.T, title string, questions ...*model.Question) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{Title: title, Difficulty: model.DifficultyEasy}
	require.NoError(t, e.db.Create(quiz).Error)
	for i, q := range questions {
		require.NoError(t, e.db.Create(&model.QuizQuestion{
			QuizID:     quiz.ID,
			QuestionID: q.ID,
			SortOrder:  i + 1,
		}).Error)
	}
	return quiz
}

func (e *testEnv) reloadUser(t *testing.T, id uint) *model.User {
	t.Helper()
	u, err := e.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func answer(questionID uint, selected int) SubmittedAnswer {
	taken := 5
	return SubmittedAnswer{QuestionID: questionID, SelectedAnswer: &selected, TimeTaken: &taken}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
