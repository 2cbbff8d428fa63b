package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"nexthire/internal/analyzer"
	"nexthire/internal/errcode"
	"nexthire/internal/store"
	"nexthire/internal/tasks"
)

// RepoSource 抽象 GitHub 数据源，便于测试替换。token 为空时使用服务端兜底 token。
type RepoSource interface {
	FetchProfile(ctx context.Context, username, token string) (analyzer.Profile, error)
	FetchRepositories(ctx context.Context, username, token string) ([]analyzer.Repository, error)
}

// AnalyzeTaskHandler 负责消费 GitHub 档案分析任务。
type AnalyzeTaskHandler struct {
	store       *store.Store
	source      RepoSource
	analyzer    *analyzer.Analyzer
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewAnalyzeTaskHandler 创建任务处理器。
func NewAnalyzeTaskHandler(
	st *store.Store,
	source RepoSource,
	an *analyzer.Analyzer,
	redisClient *redis.Client,
	logger *slog.Logger,
) *AnalyzeTaskHandler {
	return &AnalyzeTaskHandler{
		store:       st,
		source:      source,
		analyzer:    an,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *AnalyzeTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.GitHubAnalyzePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("candidate_id", int(payload.CandidateID)),
	)
	log.Info("Starting GitHub profile analysis task...")

	candidate, err := h.store.GetCandidateProfile(ctx, payload.CandidateID)
	if err != nil {
		if errors.Is(err, store.ErrCandidateNotFound) {
			log.Warn("candidate profile not found, skipping task")
			return nil
		}
		log.Error("query candidate profile failed", slog.Any("error", err))
		return err
	}

	userID := candidate.ProfileID
	username := strings.TrimSpace(candidate.GithubUsername)

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		notify := AnalysisNotifyMessage{
			Type:          notifyTypeAnalysis,
			Status:        "error",
			CandidateID:   payload.CandidateID,
			Username:      username,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishNotify(ctx, userID, notify); err != nil {
			log.Error("publish analysis error notification failed", slog.Any("error", err))
		}
	}()

	if username == "" {
		return fmt.Errorf("candidate %d has no github username", payload.CandidateID)
	}
	log = log.With(slog.String("github_username", username))

	token := strings.TrimSpace(candidate.GithubToken)

	profile, err := h.source.FetchProfile(ctx, username, token)
	if err != nil {
		log.Error("fetch github profile failed", slog.Any("error", err))
		return err
	}

	repos, err := h.source.FetchRepositories(ctx, username, token)
	if err != nil {
		log.Error("fetch github repositories failed", slog.Any("error", err))
		return err
	}

	analysis, err := h.analyzer.Analyze(ctx, profile, repos)
	if err != nil {
		log.Error("analyze github profile failed", slog.Any("error", err))
		return err
	}

	if err := h.store.SaveAnalysis(ctx, payload.CandidateID, profile.Username, analysis); err != nil {
		log.Error("save analysis failed", slog.Any("error", err))
		return err
	}

	notify := AnalysisNotifyMessage{
		Type:          notifyTypeAnalysis,
		Status:        "completed",
		CandidateID:   payload.CandidateID,
		Username:      profile.Username,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if len(repos) == 0 {
		notify.ErrorCode = errcode.UpstreamIncomplete
		notify.ErrorMessage = "GitHub 未返回任何仓库，分析结果为空档案"
		log.Warn("github returned no repositories")
	}
	if err := h.publishNotify(ctx, userID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("GitHub profile analysis task completed successfully.",
		slog.Int("repo_count", len(repos)),
	)
	return nil
}

func (h *AnalyzeTaskHandler) publishNotify(ctx context.Context, userID uint, notify AnalysisNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
