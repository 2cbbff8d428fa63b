package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nexthire/internal/api/middleware"
	"nexthire/internal/database"
	"nexthire/internal/tasks"
)

// CandidateHandler 处理候选人档案、GitHub 分析与面试记录。
type CandidateHandler struct {
	db            *gorm.DB
	asynqClient   *asynq.Client
	redis         redisRateCounter
	logger        *slog.Logger
	analyzePerDay int
}

// NewCandidateHandler 构造 CandidateHandler。
func NewCandidateHandler(db *gorm.DB, asynqClient *asynq.Client, redisClient redisRateCounter, logger *slog.Logger, analyzePerDay int) *CandidateHandler {
	if analyzePerDay <= 0 {
		analyzePerDay = 5
	}
	return &CandidateHandler{
		db:            db,
		asynqClient:   asynqClient,
		redis:         redisClient,
		logger:        logger,
		analyzePerDay: analyzePerDay,
	}
}

type candidateProfileResponse struct {
	ID              uint            `json:"id"`
	TargetRole      string          `json:"target_role"`
	Location        string          `json:"location"`
	Bio             string          `json:"bio"`
	ExperienceYears *int            `json:"experience_years"`
	Skills          []string        `json:"skills"`
	GithubUsername  string          `json:"github_username"`
	GithubData      json.RawMessage `json:"github_data,omitempty"`
	HasResume       bool            `json:"has_resume"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func candidateToResponse(row database.CandidateProfile, includeAnalysis bool) candidateProfileResponse {
	var skills []string
	if len(row.Skills) > 0 {
		_ = json.Unmarshal(row.Skills, &skills)
	}
	resp := candidateProfileResponse{
		ID:              row.ID,
		TargetRole:      row.TargetRole,
		Location:        row.Location,
		Bio:             row.Bio,
		ExperienceYears: row.ExperienceYears,
		Skills:          skills,
		GithubUsername:  row.GithubUsername,
		HasResume:       row.ResumeObjectKey != "",
		UpdatedAt:       row.UpdatedAt,
	}
	if includeAnalysis && len(row.GithubData) > 0 {
		resp.GithubData = json.RawMessage(row.GithubData)
	}
	return resp
}

// GetMyProfile 返回当前候选人的档案。
func (h *CandidateHandler) GetMyProfile(c *gin.Context) {
	row, err := h.getOwnProfile(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, candidateToResponse(*row, true))
}

type updateProfileRequest struct {
	TargetRole      *string   `json:"target_role"`
	Location        *string   `json:"location"`
	Bio             *string   `json:"bio"`
	ExperienceYears *int      `json:"experience_years"`
	Skills          *[]string `json:"skills"`
	GithubUsername  *string   `json:"github_username"`
	GithubToken     *string   `json:"github_token"`
}

// UpdateMyProfile 部分更新候选人档案，仅更新请求中出现的字段。
func (h *CandidateHandler) UpdateMyProfile(c *gin.Context) {
	row, err := h.getOwnProfile(c)
	if err != nil {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	update := map[string]any{}
	if req.TargetRole != nil {
		update["target_role"] = strings.TrimSpace(*req.TargetRole)
	}
	if req.Location != nil {
		update["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Bio != nil {
		update["bio"] = *req.Bio
	}
	if req.ExperienceYears != nil {
		if *req.ExperienceYears < 0 || *req.ExperienceYears > 60 {
			BadRequest(c, "experience years out of range")
			return
		}
		update["experience_years"] = *req.ExperienceYears
	}
	if req.Skills != nil {
		data, err := json.Marshal(*req.Skills)
		if err != nil {
			BadRequest(c, "invalid skills")
			return
		}
		update["skills"] = datatypes.JSON(data)
	}
	if req.GithubUsername != nil {
		update["github_username"] = strings.TrimSpace(*req.GithubUsername)
	}
	if req.GithubToken != nil {
		update["github_token"] = strings.TrimSpace(*req.GithubToken)
	}

	if len(update) == 0 {
		BadRequest(c, "no fields to update")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(row).Updates(update).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update candidate profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, candidateToResponse(*row, true))
}

// RequestAnalysis 投递 GitHub 档案分析任务。
// 每个候选人每天的分析次数受 Redis 计数限制。
func (h *CandidateHandler) RequestAnalysis(c *gin.Context) {
	row, err := h.getOwnProfile(c)
	if err != nil {
		return
	}
	logger := middleware.LoggerFromContext(c)

	if strings.TrimSpace(row.GithubUsername) == "" {
		BadRequest(c, "github username not set")
		return
	}

	ctx := c.Request.Context()
	rateKey := "rate:analyze:" + strconv.FormatUint(uint64(row.ID), 10) + ":" + time.Now().UTC().Format("20060102")
	count, err := incrWithTTL(ctx, h.redis, rateKey, 24*time.Hour)
	if err != nil {
		logger.Warn("analysis rate counter failed", slog.Any("error", err))
		count = 0
	}
	if count > int64(h.analyzePerDay) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "daily analysis limit reached"})
		return
	}

	task, err := tasks.NewGitHubAnalyzeTask(row.ID, middleware.GetCorrelationID(c))
	if err != nil {
		logger.Error("create analyze task failed", slog.Any("error", err))
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3))
	if err != nil {
		logger.Error("enqueue analyze task failed", slog.Any("error", err))
		Internal(c, "failed to enqueue analysis")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "github analysis request accepted",
		"task_id": info.ID,
	})
}

// GetAnalysis 返回已保存的分析结果。
func (h *CandidateHandler) GetAnalysis(c *gin.Context) {
	row, err := h.getOwnProfile(c)
	if err != nil {
		return
	}
	if len(row.GithubData) == 0 {
		NotFound(c, "no analysis available")
		return
	}
	c.Data(http.StatusOK, "application/json", row.GithubData)
}

// GetCandidate 供招聘者查看候选人档案（含分析结果）。
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	row, err := h.getProfileByParam(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, candidateToResponse(*row, true))
}

type interviewRequest struct {
	Level string  `json:"level" binding:"required,oneof=L1 L2 L3"`
	Score float64 `json:"score" binding:"min=0,max=100"`
}

type interviewResponse struct {
	ID        uint      `json:"id"`
	Level     string    `json:"level"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordInterview 记录一次面试结果。
func (h *CandidateHandler) RecordInterview(c *gin.Context) {
	row, err := h.getProfileByParam(c)
	if err != nil {
		return
	}

	var req interviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result := database.InterviewResult{
		CandidateProfileID: row.ID,
		Level:              req.Level,
		Score:              req.Score,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&result).Error; err != nil {
		middleware.LoggerFromContext(c).Error("create interview result failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusCreated, interviewResponse{
		ID:        result.ID,
		Level:     result.Level,
		Score:     result.Score,
		CreatedAt: result.CreatedAt,
	})
}

// ListInterviews 返回候选人的面试记录。
func (h *CandidateHandler) ListInterviews(c *gin.Context) {
	row, err := h.getProfileByParam(c)
	if err != nil {
		return
	}

	var results []database.InterviewResult
	err = h.db.WithContext(c.Request.Context()).
		Where("candidate_profile_id = ?", row.ID).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		middleware.LoggerFromContext(c).Error("list interview results failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	items := make([]interviewResponse, 0, len(results))
	for _, r := range results {
		items = append(items, interviewResponse{
			ID:        r.ID,
			Level:     r.Level,
			Score:     r.Score,
			CreatedAt: r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"interviews": items})
}

// getOwnProfile 按登录用户加载候选人档案，失败时已写好响应。
func (h *CandidateHandler) getOwnProfile(c *gin.Context) (*database.CandidateProfile, error) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, errors.New("unauthorized")
	}

	var row database.CandidateProfile
	err := h.db.WithContext(c.Request.Context()).
		Where("profile_id = ?", userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "candidate profile not found")
			return nil, err
		}
		middleware.LoggerFromContext(c).Error("load candidate profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, err
	}
	return &row, nil
}

// getProfileByParam 按路径参数加载候选人档案，失败时已写好响应。
func (h *CandidateHandler) getProfileByParam(c *gin.Context) (*database.CandidateProfile, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid candidate id")
		return nil, errors.New("invalid candidate id")
	}

	var row database.CandidateProfile
	if err := h.db.WithContext(c.Request.Context()).First(&row, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "candidate not found")
			return nil, err
		}
		middleware.LoggerFromContext(c).Error("load candidate failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, err
	}
	return &row, nil
}
