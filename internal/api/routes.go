package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"nexthire/internal/api/middleware"
	"nexthire/internal/auth"
	"nexthire/internal/config"
	"nexthire/internal/database"
	"nexthire/internal/matching"
	"nexthire/internal/storage"
	"nexthire/internal/store"
)

const (
	loginRateLimitPerHour = 10
	loginLockThreshold    = 5
	loginLockTTL          = 15 * time.Minute
	analyzeRequestsPerDay = 5
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	st := store.New(db)
	engine := matching.NewEngine(st, matching.DefaultConfig(), logger)

	authHandler := NewAuthHandler(db, authService, redisClient, logger,
		loginRateLimitPerHour, loginLockThreshold, loginLockTTL, cfg.Auth.CookieDomain)
	jobHandler := NewJobHandler(db, asynqClient, engine, st, logger)
	candidateHandler := NewCandidateHandler(db, asynqClient, redisClient, logger, analyzeRequestsPerDay)
	cvHandler := NewCVHandler(db, storageClient, redisClient, logger, cfg.Uploads)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOrigins)

	authMiddleware := middleware.AuthMiddleware(authService)
	recruiterOnly := middleware.RequireRole(database.RoleRecruiter)
	candidateOnly := middleware.RequireRole(database.RoleCandidate)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		jobGroup := v1.Group("/jobs")
		jobGroup.Use(authMiddleware, recruiterOnly)
		{
			jobGroup.POST("", jobHandler.CreateJob)
			jobGroup.GET("", jobHandler.ListJobs)
			jobGroup.GET("/:id", jobHandler.GetJob)
			jobGroup.PUT("/:id", jobHandler.UpdateJob)
			jobGroup.DELETE("/:id", jobHandler.DeleteJob)
			jobGroup.GET("/:id/matches", jobHandler.GetMatches)
			jobGroup.POST("/:id/matches", jobHandler.RefreshMatches)
		}

		meGroup := v1.Group("/candidates/me")
		meGroup.Use(authMiddleware, candidateOnly)
		{
			meGroup.GET("", candidateHandler.GetMyProfile)
			meGroup.PUT("", candidateHandler.UpdateMyProfile)
			meGroup.POST("/cv", cvHandler.UploadCV)
		}

		githubGroup := v1.Group("/github")
		githubGroup.Use(authMiddleware, candidateOnly)
		{
			githubGroup.POST("/analyze", candidateHandler.RequestAnalysis)
			githubGroup.GET("/analysis", candidateHandler.GetAnalysis)
		}

		candidateGroup := v1.Group("/candidates")
		candidateGroup.Use(authMiddleware, recruiterOnly)
		{
			candidateGroup.GET("/:id", candidateHandler.GetCandidate)
			candidateGroup.POST("/:id/interviews", candidateHandler.RecordInterview)
			candidateGroup.GET("/:id/interviews", candidateHandler.ListInterviews)
		}

		cvGroup := v1.Group("/cv")
		cvGroup.Use(authMiddleware)
		{
			cvGroup.GET("/link", cvHandler.GetCVLink)
		}
	}
}
