package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"nexthire/internal/database"
	"nexthire/internal/matching"
)

// MaxCachedMatches 限制单个职位缓存的匹配行数上限。
const MaxCachedMatches = 50

// ReplaceMatches 整体替换职位的匹配缓存：删除全部旧行后按给定顺序插入
// 前 50 条，整个过程在一个事务内完成，并发读取不会看到空窗口。
// 同一职位的两次并发刷新以后提交的事务为准。
func (s *Store) ReplaceMatches(ctx context.Context, jobID uint, matches []matching.Match) error {
	if len(matches) > MaxCachedMatches {
		matches = matches[:MaxCachedMatches]
	}

	rows := make([]database.CandidateMatch, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, database.CandidateMatch{
			JobPostingID:       jobID,
			CandidateProfileID: m.CandidateID,
			MatchScore:         m.Score,
			Reasoning:          m.Reasoning,
			ConfidenceLevel:    string(m.Confidence),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("job_posting_id = ?", jobID).
			Delete(&database.CandidateMatch{}).Error; err != nil {
			return fmt.Errorf("delete stale matches: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert matches: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace matches for job %d: %w", jobID, err)
	}
	return nil
}

// GetJobPosting 加载职位记录，不存在时映射为 matching.ErrNotFound。
func (s *Store) GetJobPosting(ctx context.Context, jobID uint) (*database.JobPosting, error) {
	var row database.JobPosting
	if err := s.db.WithContext(ctx).First(&row, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, matching.ErrNotFound
		}
		return nil, fmt.Errorf("load job posting %d: %w", jobID, err)
	}
	return &row, nil
}

// ListMatches 按分数降序返回职位的缓存匹配行。
func (s *Store) ListMatches(ctx context.Context, jobID uint) ([]database.CandidateMatch, error) {
	var rows []database.CandidateMatch
	err := s.db.WithContext(ctx).
		Where("job_posting_id = ?", jobID).
		Order("match_score DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list matches for job %d: %w", jobID, err)
	}
	return rows, nil
}
