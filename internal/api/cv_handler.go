package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"nexthire/internal/api/middleware"
	"nexthire/internal/config"
	"nexthire/internal/database"
	"nexthire/internal/storage"
)

// cvStorage 抽象对象存储，便于测试替换。
type cvStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// CVHandler 负责候选人简历文件的上传与下载。
type CVHandler struct {
	db      *gorm.DB
	storage cvStorage
	redis   redisRateCounter
	logger  *slog.Logger
	cfg     config.UploadsConfig
}

// NewCVHandler 返回 CVHandler 实例。
func NewCVHandler(db *gorm.DB, storageClient cvStorage, redisClient redisRateCounter, logger *slog.Logger, cfg config.UploadsConfig) *CVHandler {
	return &CVHandler{
		db:      db,
		storage: storageClient,
		redis:   redisClient,
		logger:  logger,
		cfg:     cfg,
	}
}

// UploadCV 处理简历上传：类型白名单、大小上限、病毒扫描、每日次数限制。
// 新文件覆盖旧文件的对象引用，旧对象随后删除。
func (h *CVHandler) UploadCV(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	logger := middleware.LoggerFromContext(c)
	ctx := c.Request.Context()

	var candidate database.CandidateProfile
	err := h.db.WithContext(ctx).Where("profile_id = ?", userID).First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "candidate profile not found")
			return
		}
		logger.Error("load candidate profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	rateKey := "rate:cv:" + strconv.FormatUint(uint64(userID), 10) + ":" + time.Now().UTC().Format("20060102")
	count, err := incrWithTTL(ctx, h.redis, rateKey, 24*time.Hour)
	if err != nil {
		logger.Warn("cv rate counter failed", slog.Any("error", err))
		count = 0
	}
	if count > int64(h.cfg.MaxPerDay) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "daily upload limit reached"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size > h.cfg.MaxBytes {
		BadRequest(c, "file too large")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !h.allowedMIME(contentType) {
		BadRequest(c, "unsupported content type")
		return
	}

	if h.cfg.ClamdAddr != "" {
		clamdClient := clamd.NewClamd(h.cfg.ClamdAddr)

		fileReader, err := file.Open()
		if err != nil {
			Internal(c, "failed to open file")
			return
		}

		abortChan := make(chan bool)
		scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
		fileReader.Close()
		if err != nil {
			logger.Error("scan file", slog.String("error", err.Error()))
			Internal(c, "failed to scan file")
			return
		}
		defer close(abortChan)

		for result := range scanChan {
			if result.Status != clamd.RES_OK {
				BadRequest(c, "malicious file detected")
				return
			}
		}
	} else {
		logger.Warn("clamd address not configured, skipping virus scan")
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	objectKey := fmt.Sprintf("resumes/%d/%s.pdf", userID, uuid.NewString())
	if _, err := h.storage.UploadFile(ctx, objectKey, fileReader, file.Size, contentType); err != nil {
		logger.Error("upload cv", slog.String("error", err.Error()))
		Internal(c, "failed to upload file")
		return
	}

	previousKey := candidate.ResumeObjectKey
	if err := h.db.WithContext(ctx).Model(&candidate).Update("resume_object_key", objectKey).Error; err != nil {
		logger.Error("update resume object key failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if previousKey != "" {
		if err := h.storage.DeleteObject(ctx, previousKey); err != nil {
			logger.Warn("delete previous cv failed",
				slog.String("object_key", previousKey),
				slog.Any("error", err),
			)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"object_key": objectKey})
}

// GetCVLink 生成简历的限时下载链接。
// 候选人访问自己的简历；招聘者通过 ?candidate_id= 指定候选人。
func (h *CVHandler) GetCVLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	logger := middleware.LoggerFromContext(c)
	ctx := c.Request.Context()

	var candidate database.CandidateProfile
	var err error
	if param := c.Query("candidate_id"); param != "" {
		if roleFromContext(c) != database.RoleRecruiter {
			Forbidden(c, "access denied")
			return
		}
		id, parseErr := strconv.ParseUint(param, 10, 64)
		if parseErr != nil || id == 0 {
			BadRequest(c, "invalid candidate id")
			return
		}
		err = h.db.WithContext(ctx).First(&candidate, uint(id)).Error
	} else {
		err = h.db.WithContext(ctx).Where("profile_id = ?", userID).First(&candidate).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "candidate profile not found")
			return
		}
		logger.Error("load candidate profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if candidate.ResumeObjectKey == "" {
		NotFound(c, "no resume uploaded")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(ctx, candidate.ResumeObjectKey, 15*time.Minute)
	if err != nil {
		if storage.IsNoSuchKey(err) || storage.IsNoSuchBucket(err) {
			NotFound(c, "resume file missing")
			return
		}
		logger.Error("generate presigned url", slog.String("error", err.Error()))
		Internal(c, "failed to generate url")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func (h *CVHandler) allowedMIME(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" {
		return false
	}
	for _, allowed := range h.cfg.MIMEWhitelist {
		if contentType == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}
