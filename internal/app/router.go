package app

import (
	"english_club_backend/docs"
	"english_club_backend/internal/config"
	"english_club_backend/internal/middleware"
	"english_club_backend/internal/model"
	"english_club_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/api/health", c.health.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", c.auth.Login)

	authGroup := v1.Group("")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret, a.services.auth))
	{
		a.registerMemberRoutes(authGroup, c)
		a.registerStaffRoutes(authGroup, c)
	}
}

// registerMemberRoutes 所有登录用户
func (a *App) registerMemberRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/auth/me", c.auth.Me)
	group.POST("/auth/logout", c.auth.Logout)

	group.GET("/quizzes", c.quiz.List)
	group.GET("/quizzes/:id", c.quiz.Show)
	group.POST("/quizzes/:id/attempts", c.quiz.SubmitAttempt)
	group.GET("/quizzes/:id/attempts/me", c.quiz.MyAttempt)

	group.GET("/xp/transactions", c.xp.Transactions)
	group.GET("/leaderboard", c.xp.Leaderboard)
}

// registerStaffRoutes admin 与 staff
func (a *App) registerStaffRoutes(group *gin.RouterGroup, c *controllers) {
	staff := group.Group("")
	staff.Use(middleware.RoleMiddleware(model.Admin, model.Staff))
	{
		staff.POST("/quizzes", c.quiz.Create)
		staff.PUT("/quizzes/:id", c.quiz.Update)
		staff.DELETE("/quizzes/:id", c.quiz.Delete)

		staff.GET("/questions", c.question.List)
		staff.POST("/questions", c.question.Create)
		staff.PUT("/questions/:id", c.question.Update)
		staff.DELETE("/questions/:id", c.question.Delete)

		staff.GET("/members", c.member.List)
		staff.POST("/members", c.member.Create)
		staff.POST("/members/:id/avatar", c.member.UploadAvatar)

		staff.GET("/attendance", c.attendance.List)
		staff.POST("/attendance", c.attendance.Mark)
	}
}
