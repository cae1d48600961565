package app

import (
	"bytes"
	"encoding/json"
	"english_club_backend/internal/config"
	"english_club_backend/pkg/database"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type envelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func newTestApp(t *testing.T, withRedis bool) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.Seed(db))

	var rdb *redis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
	}

	cfg := &config.Config{
		Server:      config.ServerConfig{Mode: gin.TestMode},
		JWT:         config.JWTConfig{Secret: "app-test-secret", ExpireHours: 1},
		Storage:     config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"*"}},
		XP:          config.XPConfig{QuizCompletion: 50, PerfectScore: 100, Attendance: 30, DefaultRewards: map[string]int{"easy": 10, "medium": 20, "hard": 30}},
		Cache:       config.CacheConfig{QuizTTLMinutes: 5},
		Leaderboard: config.LeaderboardConfig{Key: "test:leaderboard", DefaultLimit: 10},
	}
	return New(cfg, db, rdb)
}

func call(t *testing.T, a *App, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func login(t *testing.T, a *App, identifier, password string) string {
	t.Helper()
	w, env := call(t, a, http.MethodPost, "/api/v1/auth/login", "", gin.H{"identifier": identifier, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

type attemptData struct {
	Attempt struct {
		Score            int  `json:"score"`
		XPEarned         int  `json:"xp_earned"`
		Bonus            int  `json:"bonus"`
		CompletionBonus  int  `json:"completion_bonus"`
		AlreadyAttempted bool `json:"already_attempted"`
	} `json:"attempt"`
	Answers []struct {
		QuestionID uint `json:"question_id"`
		IsCorrect  bool `json:"is_correct"`
	} `json:"answers"`
	User *struct {
		XP int `json:"xp"`
	} `json:"user"`
}

func TestSubmitAttemptFlow(t *testing.T) {
	a := newTestApp(t, true)
	token := login(t, a, "member1", "member123")

	// 未提交前查询为全零结果
	w, env := call(t, a, http.MethodGet, "/api/v1/quizzes/1/attempts/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var empty attemptData
	require.NoError(t, json.Unmarshal(env.Data, &empty))
	assert.False(t, empty.Attempt.AlreadyAttempted)
	assert.Zero(t, empty.Attempt.XPEarned)

	answers := gin.H{"answers": []gin.H{
		{"question_id": 1, "selected_answer": 1, "time_taken": 12},
		{"question_id": 2, "selected_answer": 1, "time_taken": 8},
	}}
	w, env = call(t, a, http.MethodPost, "/api/v1/quizzes/1/attempts", token, answers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first attemptData
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.False(t, first.Attempt.AlreadyAttempted)
	assert.Equal(t, 30, first.Attempt.Score)
	assert.Equal(t, 100, first.Attempt.Bonus)
	assert.Equal(t, 180, first.Attempt.XPEarned)
	require.NotNil(t, first.User)
	assert.Equal(t, 1200+180, first.User.XP)

	w, env = call(t, a, http.MethodPost, "/api/v1/quizzes/1/attempts", token, answers)
	require.Equal(t, http.StatusOK, w.Code)
	var second attemptData
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.True(t, second.Attempt.AlreadyAttempted)
	assert.Equal(t, 180, second.Attempt.XPEarned)
	assert.Equal(t, 1200+180, second.User.XP)

	w, env = call(t, a, http.MethodGet, "/api/v1/xp/transactions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Total)

	w, _ = call(t, a, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `quiz_attempts_total{outcome="graded"}`)
	assert.Contains(t, w.Body.String(), `xp_awarded_total{source="quiz_attempt"}`)
}

func TestSubmitAttemptValidation(t *testing.T) {
	a := newTestApp(t, false)
	token := login(t, a, "member1", "member123")

	w, env := call(t, a, http.MethodPost, "/api/v1/quizzes/1/attempts", token, gin.H{"answers": []gin.H{
		{"question_id": 999, "selected_answer": 0},
	}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Validation error", env.Message)
	assert.Contains(t, env.Errors, "answers.0.question_id")

	w, env = call(t, a, http.MethodPost, "/api/v1/quizzes/1/attempts", token, gin.H{"answers": []gin.H{
		{"question_id": 1},
	}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Errors, "answers.0.selected_answer")

	w, _ = call(t, a, http.MethodPost, "/api/v1/quizzes/999/attempts", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/v1/quizzes/1/attempts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitAttemptMalformedBodyReturnsExistingAttempt(t *testing.T) {
	a := newTestApp(t, false)
	token := login(t, a, "member1", "member123")
	malformed := gin.H{"answers": []gin.H{{"question_id": 1, "selected_answer": "x"}}}

	w, _ := call(t, a, http.MethodPost, "/api/v1/quizzes/1/attempts", token, malformed)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/v1/quizzes/999/attempts", token, malformed)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/v1/quizzes/1/attempts", token, gin.H{"answers": []gin.H{
		{"question_id": 1, "selected_answer": 1},
		{"question_id": 2, "selected_answer": 1},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := call(t, a, http.MethodPost, "/api/v1/quizzes/1/attempts", token, malformed)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var again attemptData
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.True(t, again.Attempt.AlreadyAttempted)
	assert.Equal(t, 180, again.Attempt.XPEarned)
	require.NotNil(t, again.User)
	assert.Equal(t, 1200+180, again.User.XP)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := newTestApp(t, false)

	w, env := call(t, a, http.MethodPost, "/api/v1/auth/login", "", gin.H{"identifier": "member1", "password": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Errors, "identifier")

	w, env = call(t, a, http.MethodPost, "/api/v1/auth/login", "", gin.H{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Errors, "password")
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newTestApp(t, true)
	token := login(t, a, "member2", "member123")

	w, _ := call(t, a, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, a, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffRoutesRequireRole(t *testing.T) {
	a := newTestApp(t, false)
	member := login(t, a, "member1", "member123")
	staff := login(t, a, "staff1", "staff123")

	quiz := gin.H{"title": "New Quiz", "difficulty": "easy", "questions": []gin.H{{"id": 1}}}
	w, _ := call(t, a, http.MethodPost, "/api/v1/quizzes", member, quiz)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = call(t, a, http.MethodPost, "/api/v1/quizzes", staff, quiz)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := call(t, a, http.MethodPost, "/api/v1/attendance", staff, gin.H{"user_id": 3, "status": "present", "date": "2024-05-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var record struct {
		XPAwarded int `json:"xpAwarded"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, 30, record.XPAwarded)

	w, env = call(t, a, http.MethodPost, "/api/v1/attendance", staff, gin.H{"user_id": 3, "status": "sleeping", "date": "01-05-2024"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Errors, "status")
	assert.Contains(t, env.Errors, "date")
}

func TestQuizShowHidesAnswersFromMembers(t *testing.T) {
	a := newTestApp(t, true)
	member := login(t, a, "member1", "member123")
	admin := login(t, a, "admin", "admin123")

	_, env := call(t, a, http.MethodGet, "/api/v1/quizzes/1", member, nil)
	var view struct {
		Questions []map[string]interface{} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Questions, 2)
	assert.NotContains(t, view.Questions[0], "correctAnswer")

	_, env = call(t, a, http.MethodGet, "/api/v1/quizzes/1", admin, nil)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Contains(t, view.Questions[0], "correctAnswer")
}

func TestHealthAndLeaderboard(t *testing.T) {
	a := newTestApp(t, true)
	token := login(t, a, "member1", "member123")

	w, env := call(t, a, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"redis":"up"`)

	w, env = call(t, a, http.MethodGet, "/api/v1/leaderboard?limit=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []struct {
		Rank     int    `json:"rank"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "admin", entries[0].Username)
	assert.Equal(t, "staff1", entries[1].Username)
}

func TestReloadConfigUpdatesRules(t *testing.T) {
	a := newTestApp(t, false)
	cfg := *a.Config
	cfg.XP.Attendance = 99
	a.ReloadConfig(&cfg)

	assert.Equal(t, 99, a.services.rules.Get().Attendance)
}
