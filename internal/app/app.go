package app

import (
	"context"
	"english_club_backend/internal/config"
	"english_club_backend/internal/controller"
	"english_club_backend/internal/repository"
	"english_club_backend/internal/service"
	"english_club_backend/internal/util"
	"english_club_backend/pkg/database"
	"english_club_backend/pkg/logger"
	"english_club_backend/pkg/monitoring"
	"english_club_backend/pkg/security"
	"english_club_backend/pkg/tracing"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	question   *repository.QuestionRepository
	quiz       *repository.QuizRepository
	attempt    *repository.QuizAttemptRepository
	ledger     *repository.XPTransactionRepository
	attendance *repository.AttendanceRepository
}

type services struct {
	rules       *service.RulesHolder
	auth        *service.AuthService
	storage     *service.StorageService
	member      *service.MemberService
	question    *service.QuestionService
	quiz        *service.QuizService
	attempt     *service.AttemptService
	attendance  *service.AttendanceService
	xp          *service.XPService
	leaderboard *service.LeaderboardService
}

type controllers struct {
	auth       *controller.AuthController
	member     *controller.MemberController
	question   *controller.QuestionController
	quiz       *controller.QuizController
	attendance *controller.AttendanceController
	xp         *controller.XPController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置文件变化后调用，目前只热更新 XP 规则
func (a *App) ReloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		question:   repository.NewQuestionRepository(db),
		quiz:       repository.NewQuizRepository(db),
		attempt:    repository.NewQuizAttemptRepository(db),
		ledger:     repository.NewXPTransactionRepository(db),
		attendance: repository.NewAttendanceRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.rules = service.NewRulesHolder(cfg.XP)
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.rules.Update(newCfg.XP)
		logger.Log.Info("XP rules reloaded",
			zap.Int("quiz_completion", newCfg.XP.QuizCompletion),
			zap.Int("perfect_score", newCfg.XP.PerfectScore),
			zap.Int("attendance", newCfg.XP.Attendance),
		)
	})

	quizCache := service.NewQuizCache(rdb, cfg.Cache.QuizTTL())

	s.storage = service.NewStorageService(&cfg.Storage)
	s.auth = service.NewAuthService(repos.user, rdb, cfg.JWT)
	s.member = service.NewMemberService(repos.user, s.storage)
	s.leaderboard = service.NewLeaderboardService(rdb, repos.user, cfg.Leaderboard.Key)
	s.xp = service.NewXPService(db, repos.user, repos.ledger, s.leaderboard)
	s.question = service.NewQuestionService(repos.question, quizCache)
	s.quiz = service.NewQuizService(db, repos.quiz, repos.question, quizCache)
	s.attempt = service.NewAttemptService(db, repos.quiz, repos.question, repos.attempt, repos.ledger, repos.user, s.xp, s.rules)
	s.attendance = service.NewAttendanceService(db, repos.attendance, repos.user, repos.ledger, s.xp, s.rules)

	return s
}

func (a *App) initControllers(s *services, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		member:     controller.NewMemberController(s.member),
		question:   controller.NewQuestionController(s.question),
		quiz:       controller.NewQuizController(s.quiz, s.attempt),
		attendance: controller.NewAttendanceController(s.attendance),
		xp:         controller.NewXPController(s.xp, s.leaderboard, cfg.Leaderboard.DefaultLimit),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if cfg.RateLimit.MaxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 使用已建立的连接组装应用，rdb 可为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	util.RegisterJSONTagNames()
	monitoring.Init()

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(app.services, cfg, db, rdb)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode != gin.TestMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// NewApp 建立数据库、Redis 与追踪连接；Redis 不可用时以降级模式运行
func NewApp(cfg *config.Config) (*App, error) {
	gin.SetMode(cfg.Server.Mode)
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	rdb, err := database.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, cache and leaderboard fall back to database", zap.Error(err))
		rdb = nil
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("english-club", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		app.tracer = tp
	}

	return app, nil
}

// AttemptService 供命令行对账使用
func (a *App) AttemptService() *service.AttemptService {
	return a.services.attempt
}

// WarmLeaderboard 启动时用数据库重建排行榜
func (a *App) WarmLeaderboard(ctx context.Context) {
	if err := a.services.leaderboard.Rebuild(ctx); err != nil {
		logger.Log.Warn("Failed to warm leaderboard", zap.Error(err))
	}
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
	return nil
}

// Close 释放追踪、Redis 与数据库连接
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
