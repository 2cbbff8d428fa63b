// Package store 把 gorm 持久层适配成匹配引擎与分析器消费的只读模型。
// 打分相关的包保持纯函数，所有数据库访问都集中在这里。
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"nexthire/internal/analyzer"
	"nexthire/internal/database"
	"nexthire/internal/matching"
)

// Store 包装共享的 gorm 句柄。
type Store struct {
	db *gorm.DB
}

// New 创建 Store。
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetJob 按 ID 加载职位并转换为匹配引擎的只读模型。
// 不存在的职位映射为 matching.ErrNotFound，便于上层干净地返回 404。
func (s *Store) GetJob(ctx context.Context, jobID uint) (*matching.Job, error) {
	var row database.JobPosting
	if err := s.db.WithContext(ctx).First(&row, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, matching.ErrNotFound
		}
		return nil, fmt.Errorf("query job posting: %w", err)
	}
	return jobFromRow(row)
}

func jobFromRow(row database.JobPosting) (*matching.Job, error) {
	var skills []string
	if len(row.RequiredSkills) > 0 {
		if err := json.Unmarshal(row.RequiredSkills, &skills); err != nil {
			return nil, fmt.Errorf("decode required skills for job %d: %w", row.ID, err)
		}
	}
	return &matching.Job{
		ID:              row.ID,
		Title:           row.Title,
		RequiredSkills:  skills,
		ExperienceLevel: matching.ExperienceLevel(row.ExperienceLevel),
		Description:     row.Description,
	}, nil
}

// interviewAggregate 是按候选人聚合的面试结果。
type interviewAggregate struct {
	CandidateProfileID uint
	HighestLevel       string
	AvgScore           float64
	Total              int
}

// ListCandidates 返回全量候选人只读模型，并合并面试聚合数据。
// 存在无法解析 JSON 字段的候选人直接跳过，不让整轮匹配失败。
func (s *Store) ListCandidates(ctx context.Context) ([]matching.Candidate, error) {
	var rows []database.CandidateProfile
	if err := s.db.WithContext(ctx).Preload("Profile").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query candidate profiles: %w", err)
	}

	aggregates, err := s.interviewAggregates(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]matching.Candidate, 0, len(rows))
	for _, row := range rows {
		candidate, err := candidateFromRow(row, aggregates[row.ID])
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (s *Store) interviewAggregates(ctx context.Context) (map[uint]interviewAggregate, error) {
	var raws []struct {
		CandidateProfileID uint
		MaxLevel           string
		AvgScore           float64
		Total              int
	}
	err := s.db.WithContext(ctx).
		Model(&database.InterviewResult{}).
		Select("candidate_profile_id, MAX(level) AS max_level, AVG(score) AS avg_score, COUNT(*) AS total").
		Group("candidate_profile_id").
		Scan(&raws).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate interview results: %w", err)
	}

	aggregates := make(map[uint]interviewAggregate, len(raws))
	for _, r := range raws {
		aggregates[r.CandidateProfileID] = interviewAggregate{
			CandidateProfileID: r.CandidateProfileID,
			HighestLevel:       r.MaxLevel,
			AvgScore:           r.AvgScore,
			Total:              r.Total,
		}
	}
	return aggregates, nil
}

func candidateFromRow(row database.CandidateProfile, agg interviewAggregate) (matching.Candidate, error) {
	var skills []string
	if len(row.Skills) > 0 {
		if err := json.Unmarshal(row.Skills, &skills); err != nil {
			return matching.Candidate{}, fmt.Errorf("decode skills for candidate %d: %w", row.ID, err)
		}
	}

	var github *analyzer.Analysis
	if len(row.GithubData) > 0 {
		var blob analyzer.Analysis
		if err := json.Unmarshal(row.GithubData, &blob); err != nil {
			return matching.Candidate{}, fmt.Errorf("decode github data for candidate %d: %w", row.ID, err)
		}
		github = &blob
	}

	candidate := matching.Candidate{
		ID:              row.ID,
		Email:           row.Profile.Email,
		FullName:        row.Profile.FullName,
		Skills:          skills,
		ExperienceYears: row.ExperienceYears,
		TotalInterviews: agg.Total,
		GitHub:          github,
		TargetRole:      row.TargetRole,
		Location:        row.Location,
		CreatedAt:       row.CreatedAt,
	}
	if agg.Total > 0 {
		level := matching.InterviewLevel(agg.HighestLevel)
		avg := agg.AvgScore
		candidate.HighestLevel = &level
		candidate.AvgScore = &avg
	}
	return candidate, nil
}
