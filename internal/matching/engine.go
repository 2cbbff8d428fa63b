package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
)

// ErrNotFound 表示请求的职位不存在。
var ErrNotFound = errors.New("job posting not found")

// ErrInvalidInput 表示调用方传入了无效的职位标识。
var ErrInvalidInput = errors.New("invalid input")

// DefaultLimit 是调用方未指定数量时 FindMatches 返回的匹配条数。
const DefaultLimit = 20

// Store 加载引擎参与排序的读模型。职位不存在时实现必须返回
// ErrNotFound（可以被包装）。
type Store interface {
	GetJob(ctx context.Context, jobID uint) (*Job, error)
	ListCandidates(ctx context.Context) ([]Candidate, error)
}

// Engine 执行先召回后排序的两阶段流水线。
type Engine struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	clock  func() time.Time
}

// NewEngine 基于候选人/职位存储构造 Engine。
func NewEngine(store Store, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		cfg:    cfg,
		logger: logger,
		clock:  time.Now,
	}
}

// WithClock 覆盖引擎的时钟，便于测试。
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// FindMatches 加载职位与全部候选人，先过第一阶段筛选，再对幸存者
// 排序，按分数取前若干名，同分时以面试加 GitHub 质量分决出先后。
// 数据不变时重跑得到完全相同的分数与顺序。
func (e *Engine) FindMatches(ctx context.Context, jobID uint, limit int) ([]Match, error) {
	if jobID == 0 {
		return nil, fmt.Errorf("job id: %w", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %d: %w", jobID, err)
	}

	candidates, err := e.store.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	now := e.clock()

	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if e.cfg.PassesMinimum(c, *job) {
			filtered = append(filtered, c)
		}
	}
	e.logger.Info("stage 1 retrieval complete",
		slog.Uint64("job_id", uint64(jobID)),
		slog.Int("passed", len(filtered)),
		slog.Int("total", len(candidates)),
	)

	matches := make([]Match, 0, len(filtered))
	for _, c := range filtered {
		matches = append(matches, e.buildMatch(c, *job, now))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].QualityScore > matches[j].QualityScore
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (e *Engine) buildMatch(candidate Candidate, job Job, now time.Time) Match {
	result := e.cfg.Rank(candidate, job, now)

	name := candidate.FullName
	if name == "" {
		name = "Anonymous"
	}

	var interviewScore *int
	if candidate.AvgScore != nil {
		rounded := int(math.Round(*candidate.AvgScore))
		interviewScore = &rounded
	}

	return Match{
		CandidateID:    candidate.ID,
		CandidateName:  name,
		CandidateEmail: candidate.Email,
		Score:          result.Score,
		Breakdown:      result.Breakdown,
		Reasoning:      result.Reasoning,
		Confidence:     result.Confidence,

		Skills:         candidate.Skills,
		MatchingSkills: result.SkillMatch.Matching,
		MissingSkills:  result.SkillMatch.Missing,

		InterviewLevel:  candidate.HighestLevel,
		InterviewScore:  interviewScore,
		ExperienceYears: candidate.ExperienceYears,

		GitHubAnalyzed: candidate.GitHub != nil,
		QualityScore:   result.Breakdown.InterviewQuality + result.Breakdown.GitHubQuality,

		TargetRole: candidate.TargetRole,
		Location:   candidate.Location,
		LastActive: candidate.CreatedAt,
	}
}
