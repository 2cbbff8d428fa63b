package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nexthire/internal/api/middleware"
	"nexthire/internal/database"
	"nexthire/internal/matching"
	"nexthire/internal/store"
	"nexthire/internal/tasks"
)

// JobHandler 处理职位的增删改查与匹配查询。
type JobHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	engine      *matching.Engine
	store       *store.Store
	logger      *slog.Logger
}

// NewJobHandler 构造 JobHandler。
func NewJobHandler(db *gorm.DB, asynqClient *asynq.Client, engine *matching.Engine, st *store.Store, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		db:          db,
		asynqClient: asynqClient,
		engine:      engine,
		store:       st,
		logger:      logger,
	}
}

var errInvalidJobID = errors.New("invalid job id")

type jobRequest struct {
	Title           string   `json:"title" binding:"required,min=1,max=255"`
	RequiredSkills  []string `json:"required_skills" binding:"required,min=1"`
	ExperienceLevel string   `json:"experience_level" binding:"required,oneof=entry mid senior"`
	Description     string   `json:"description"`
	Status          string   `json:"status" binding:"omitempty,oneof=open closed"`
}

type jobResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	RequiredSkills  []string  `json:"required_skills"`
	ExperienceLevel string    `json:"experience_level"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func jobToResponse(row database.JobPosting) jobResponse {
	var skills []string
	if len(row.RequiredSkills) > 0 {
		_ = json.Unmarshal(row.RequiredSkills, &skills)
	}
	return jobResponse{
		ID:              row.ID,
		Title:           row.Title,
		RequiredSkills:  skills,
		ExperienceLevel: row.ExperienceLevel,
		Description:     row.Description,
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

// CreateJob 创建新职位。
func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	skills, err := json.Marshal(req.RequiredSkills)
	if err != nil {
		BadRequest(c, "invalid required skills")
		return
	}

	status := req.Status
	if status == "" {
		status = "open"
	}

	row := database.JobPosting{
		RecruiterID:     userID,
		Title:           req.Title,
		RequiredSkills:  datatypes.JSON(skills),
		ExperienceLevel: req.ExperienceLevel,
		Description:     req.Description,
		Status:          status,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		middleware.LoggerFromContext(c).Error("create job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusCreated, jobToResponse(row))
}

// ListJobs 返回当前招聘者创建的职位列表。
func (h *JobHandler) ListJobs(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	query := h.db.WithContext(c.Request.Context()).
		Where("recruiter_id = ?", userID).
		Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []database.JobPosting
	if err := query.Find(&rows).Error; err != nil {
		middleware.LoggerFromContext(c).Error("list jobs failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	items := make([]jobResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, jobToResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": items})
}

// GetJob 返回单个职位。
func (h *JobHandler) GetJob(c *gin.Context) {
	row, err := h.getJobForRecruiter(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, jobToResponse(*row))
}

// UpdateJob 更新职位内容。
func (h *JobHandler) UpdateJob(c *gin.Context) {
	row, err := h.getJobForRecruiter(c)
	if err != nil {
		return
	}

	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	skills, err := json.Marshal(req.RequiredSkills)
	if err != nil {
		BadRequest(c, "invalid required skills")
		return
	}

	update := map[string]any{
		"title":            req.Title,
		"required_skills":  datatypes.JSON(skills),
		"experience_level": req.ExperienceLevel,
		"description":      req.Description,
	}
	if req.Status != "" {
		update["status"] = req.Status
	}

	if err := h.db.WithContext(c.Request.Context()).Model(row).Updates(update).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, jobToResponse(*row))
}

// DeleteJob 删除职位（软删除）。
func (h *JobHandler) DeleteJob(c *gin.Context) {
	row, err := h.getJobForRecruiter(c)
	if err != nil {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(row).Error; err != nil {
		middleware.LoggerFromContext(c).Error("delete job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}

type cachedMatchItem struct {
	CandidateProfileID uint      `json:"candidate_profile_id"`
	MatchScore         int       `json:"match_score"`
	Reasoning          string    `json:"reasoning"`
	ConfidenceLevel    string    `json:"confidence_level"`
	CachedAt           time.Time `json:"cached_at"`
}

// GetMatches 返回缓存的匹配结果。
func (h *JobHandler) GetMatches(c *gin.Context) {
	row, err := h.getJobForRecruiter(c)
	if err != nil {
		return
	}

	rows, err := h.store.ListMatches(c.Request.Context(), row.ID)
	if err != nil {
		middleware.LoggerFromContext(c).Error("list cached matches failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	items := make([]cachedMatchItem, 0, len(rows))
	for _, m := range rows {
		items = append(items, cachedMatchItem{
			CandidateProfileID: m.CandidateProfileID,
			MatchScore:         m.MatchScore,
			Reasoning:          m.Reasoning,
			ConfidenceLevel:    m.ConfidenceLevel,
			CachedAt:           m.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"matches": items})
}

// RefreshMatches 重新计算职位匹配。
// 默认投递后台任务异步刷新；?sync=true 时同步计算并立即返回结果。
func (h *JobHandler) RefreshMatches(c *gin.Context) {
	row, err := h.getJobForRecruiter(c)
	if err != nil {
		return
	}
	logger := middleware.LoggerFromContext(c)

	if sync := c.Query("sync"); sync == "true" || sync == "1" {
		matches, err := h.engine.FindMatches(c.Request.Context(), row.ID, store.MaxCachedMatches)
		if err != nil {
			logger.Error("sync match refresh failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
		if err := h.store.ReplaceMatches(c.Request.Context(), row.ID, matches); err != nil {
			logger.Error("replace cached matches failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
		return
	}

	task, err := tasks.NewMatchRefreshTask(row.ID, middleware.GetCorrelationID(c))
	if err != nil {
		logger.Error("create match refresh task failed", slog.Any("error", err))
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3))
	if err != nil {
		logger.Error("enqueue match refresh failed", slog.Any("error", err))
		Internal(c, "failed to enqueue match refresh")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "match refresh request accepted",
		"task_id": info.ID,
	})
}

// getJobForRecruiter 加载职位并校验归属，失败时已写好响应。
func (h *JobHandler) getJobForRecruiter(c *gin.Context) (*database.JobPosting, error) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, errors.New("unauthorized")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid job id")
		return nil, errInvalidJobID
	}

	var row database.JobPosting
	if err := h.db.WithContext(c.Request.Context()).First(&row, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return nil, err
		}
		middleware.LoggerFromContext(c).Error("load job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, err
	}

	if row.RecruiterID != userID {
		Forbidden(c, "not your job posting")
		return nil, errors.New("forbidden")
	}
	return &row, nil
}
