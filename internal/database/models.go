package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 账号角色。
const (
	RoleCandidate = "candidate"
	RoleRecruiter = "recruiter"
)

// Profile 是一个账号，角色为候选人或招聘方。
type Profile struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255"`
	FullName     string `gorm:"size:255"`
	PasswordHash string `gorm:"size:255"`
	Role         string `gorm:"size:32;index"`
}

// CandidateProfile 在候选人账号之上扩展匹配引擎消费的数据。
// Skills 与 GithubData 存为 JSONB；GithubData 在首次仓库分析完成前
// 保持为 null。
type CandidateProfile struct {
	gorm.Model
	ProfileID uint    `gorm:"uniqueIndex"`
	Profile   Profile `gorm:"constraint:OnDelete:CASCADE"`

	TargetRole      string `gorm:"size:255"`
	Location        string `gorm:"size:255"`
	Bio             string `gorm:"type:text"`
	ExperienceYears *int

	Skills datatypes.JSON `gorm:"type:jsonb"`

	GithubUsername string         `gorm:"size:255"`
	GithubToken    string         `gorm:"size:512"`
	GithubData     datatypes.JSON `gorm:"type:jsonb"`

	ResumeObjectKey string `gorm:"size:512"`
}

// InterviewResult 记录一次已完成的 AI 面试。匹配引擎读取的是聚合值
// （最高级别、平均分、次数），不读单行。
type InterviewResult struct {
	gorm.Model
	CandidateProfileID uint             `gorm:"index"`
	CandidateProfile   CandidateProfile `gorm:"constraint:OnDelete:CASCADE"`
	Level              string           `gorm:"size:8"` // L1 | L2 | L3
	Score              float64
}

// JobPosting 是招聘方发布的职位。
type JobPosting struct {
	gorm.Model
	RecruiterID uint    `gorm:"index"`
	Recruiter   Profile `gorm:"foreignKey:RecruiterID;constraint:OnDelete:CASCADE"`

	Title           string         `gorm:"size:255"`
	RequiredSkills  datatypes.JSON `gorm:"type:jsonb"`
	ExperienceLevel string         `gorm:"size:16"` // entry | mid | senior
	Description     string         `gorm:"type:text"`
	Status          string         `gorm:"size:16;default:'open'"`
}

// CandidateMatch 缓存职位的一条排序结果。(职位, 候选人) 组合唯一；
// 重新匹配时整体替换该职位的全部行。
type CandidateMatch struct {
	gorm.Model
	JobPostingID       uint `gorm:"uniqueIndex:idx_job_candidate"`
	CandidateProfileID uint `gorm:"uniqueIndex:idx_job_candidate"`

	MatchScore      int
	Reasoning       string `gorm:"type:text"`
	ConfidenceLevel string `gorm:"size:16"`
}
