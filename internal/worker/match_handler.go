package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"nexthire/internal/errcode"
	"nexthire/internal/matching"
	"nexthire/internal/metrics"
	"nexthire/internal/store"
	"nexthire/internal/tasks"
)

// MatchTaskHandler 负责消费职位匹配刷新任务。
type MatchTaskHandler struct {
	store       *store.Store
	engine      *matching.Engine
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewMatchTaskHandler 创建任务处理器。
func NewMatchTaskHandler(
	st *store.Store,
	engine *matching.Engine,
	redisClient *redis.Client,
	logger *slog.Logger,
) *MatchTaskHandler {
	return &MatchTaskHandler{
		store:       st,
		engine:      engine,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *MatchTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.MatchRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("job_id", int(payload.JobID)),
	)
	log.Info("Starting match refresh task...")

	posting, err := h.store.GetJobPosting(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, matching.ErrNotFound) {
			log.Warn("job posting not found, skipping task")
			return nil
		}
		log.Error("query job posting failed", slog.Any("error", err))
		return err
	}
	recruiterID := posting.RecruiterID

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		notify := MatchRefreshNotifyMessage{
			Type:          notifyTypeMatchRefresh,
			Status:        "error",
			JobID:         payload.JobID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishNotify(ctx, recruiterID, notify); err != nil {
			log.Error("publish match error notification failed", slog.Any("error", err))
		}
	}()

	started := time.Now()
	matches, err := h.engine.FindMatches(ctx, payload.JobID, store.MaxCachedMatches)
	if err != nil {
		log.Error("find matches failed", slog.Any("error", err))
		return err
	}

	if err := h.store.ReplaceMatches(ctx, payload.JobID, matches); err != nil {
		log.Error("replace cached matches failed", slog.Any("error", err))
		return err
	}
	metrics.ObserveMatchRefresh(len(matches), time.Since(started).Seconds())

	notify := MatchRefreshNotifyMessage{
		Type:          notifyTypeMatchRefresh,
		Status:        "completed",
		JobID:         payload.JobID,
		MatchCount:    len(matches),
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishNotify(ctx, recruiterID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Match refresh task completed successfully.",
		slog.Int("match_count", len(matches)),
	)
	return nil
}

func (h *MatchTaskHandler) publishNotify(ctx context.Context, userID uint, notify MatchRefreshNotifyMessage) error {
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
