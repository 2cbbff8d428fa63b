package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"nexthire/internal/ai/gemini"
	"nexthire/internal/analyzer"
	"nexthire/internal/config"
	"nexthire/internal/database"
	"nexthire/internal/github"
	"nexthire/internal/matching"
	"nexthire/internal/metrics"
	"nexthire/internal/store"
	"nexthire/internal/tasks"
	"nexthire/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	// Gemini 不可用时分析走确定性兜底，不阻塞 worker 启动。
	var assessor analyzer.Assessor
	if cfg.Gemini.APIKey != "" {
		assessor, err = gemini.NewAssessor(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Warn("init gemini assessor failed, falling back to deterministic assessment", slog.Any("error", err))
			assessor = nil
		}
	} else {
		logger.Info("gemini api key not set, using deterministic assessment")
	}

	st := store.New(db)
	ghClient := github.NewClient(cfg.GitHub.APIBaseURL, cfg.GitHub.Token, logger)
	an := analyzer.New(assessor, logger)
	engine := matching.NewEngine(st, matching.DefaultConfig(), logger)

	analyzeHandler := worker.NewAnalyzeTaskHandler(st, ghClient, an, redisClient, logger)
	matchHandler := worker.NewMatchTaskHandler(st, engine, redisClient, logger)

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeGitHubAnalyze, analyzeHandler)
	mux.Handle(tasks.TypeMatchRefresh, matchHandler)

	logger.Info("worker service started", slog.String("redis_addr", redisAddr))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
