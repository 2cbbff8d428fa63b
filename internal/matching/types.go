package matching

import (
	"time"

	"nexthire/internal/analyzer"
)

// ExperienceLevel 是职位面向的资历级别。
type ExperienceLevel string

const (
	LevelEntry  ExperienceLevel = "entry"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
)

// InterviewLevel 是候选人完成过的最高 AI 面试级别。
type InterviewLevel string

const (
	InterviewL1 InterviewLevel = "L1"
	InterviewL2 InterviewLevel = "L2"
	InterviewL3 InterviewLevel = "L3"
)

// Job 是匹配引擎使用的职位读模型。RequiredSkills 可以包含重复项，
// 每个出现都独立匹配。
type Job struct {
	ID              uint
	Title           string
	RequiredSkills  []string
	ExperienceLevel ExperienceLevel
	Description     string
}

// Candidate 是单个候选人的读模型。可选字段用指针表示：nil 意味着
// 数据从未收集，打分时按零值优雅降级，绝不报错。
type Candidate struct {
	ID              uint
	Email           string
	FullName        string
	Skills          []string
	ExperienceYears *int
	HighestLevel    *InterviewLevel
	AvgScore        *float64
	TotalInterviews int
	GitHub          *analyzer.Analysis
	TargetRole      string
	Location        string
	CreatedAt       time.Time
}

func (c Candidate) experienceYears() int {
	if c.ExperienceYears == nil {
		return 0
	}
	return *c.ExperienceYears
}

// Confidence 表达匹配分背后有多少支撑数据。
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Breakdown 记录匹配分的各分量得分。
type Breakdown struct {
	SkillMatch       int `json:"skill_match"`
	InterviewQuality int `json:"interview_quality"`
	ExperienceMatch  int `json:"experience_match"`
	GitHubQuality    int `json:"github_quality"`
	RecencyBonus     int `json:"recency_bonus"`
}

// Match 是职位下的一个排序后的候选人。
type Match struct {
	CandidateID    uint       `json:"candidate_id"`
	CandidateName  string     `json:"candidate_name"`
	CandidateEmail string     `json:"candidate_email"`
	Score          int        `json:"match_score"`
	Breakdown      Breakdown  `json:"breakdown"`
	Reasoning      string     `json:"reasoning"`
	Confidence     Confidence `json:"confidence_level"`

	Skills         []string `json:"skills"`
	MatchingSkills []string `json:"matching_skills"`
	MissingSkills  []string `json:"missing_skills"`

	InterviewLevel  *InterviewLevel `json:"interview_level"`
	InterviewScore  *int            `json:"interview_score"`
	ExperienceYears *int            `json:"experience_years"`

	GitHubAnalyzed bool `json:"github_analyzed"`
	// QualityScore 是排序的同分裁决项：面试质量分加 GitHub 质量分。
	QualityScore int `json:"quality_score"`

	TargetRole string    `json:"target_role,omitempty"`
	Location   string    `json:"location,omitempty"`
	LastActive time.Time `json:"last_active"`
}
