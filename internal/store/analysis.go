package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"nexthire/internal/analyzer"
	"nexthire/internal/database"
)

// ErrCandidateNotFound 表示候选人档案不存在。
var ErrCandidateNotFound = errors.New("candidate profile not found")

// GetCandidateProfile 按 ID 加载一条候选人档案。
func (s *Store) GetCandidateProfile(ctx context.Context, candidateID uint) (*database.CandidateProfile, error) {
	var row database.CandidateProfile
	if err := s.db.WithContext(ctx).Preload("Profile").First(&row, candidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("query candidate profile: %w", err)
	}
	return &row, nil
}

// SaveAnalysis 把完成的 GitHub 分析结果写回候选人档案，
// 覆盖旧的分析数据并刷新已验证的技能列表。
func (s *Store) SaveAnalysis(ctx context.Context, candidateID uint, username string, analysis *analyzer.Analysis) error {
	blob, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	skills, err := json.Marshal(analysis.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}

	result := s.db.WithContext(ctx).
		Model(&database.CandidateProfile{}).
		Where("id = ?", candidateID).
		Updates(map[string]any{
			"github_username": username,
			"github_data":     blob,
			"skills":          skills,
		})
	if result.Error != nil {
		return fmt.Errorf("save analysis for candidate %d: %w", candidateID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}
