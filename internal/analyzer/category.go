package analyzer

import "time"

// Category 描述一个仓库反映出的候选人工作类型。
type Category string

const (
	// CategoryOSS 表示候选人在 fork 上有至少十次本人提交，视作开源贡献。
	CategoryOSS Category = "oss"
	// CategoryProfessional 表示成熟、有文档、得分高的工作。
	CategoryProfessional Category = "professional"
	// CategoryActive 表示最近一个月内仍在更新的项目。
	CategoryActive Category = "active"
	// CategoryLearning 表示小型、新建或探索性质的仓库。
	CategoryLearning Category = "learning"
	// CategoryNotable 是其余情况的兜底类别。
	CategoryNotable Category = "notable"
)

const ossCommitThreshold = 10

// Categorize 为仓库指定唯一类别。规则按顺序检查，首个命中即返回。
func Categorize(repo Repository, workScore int, now time.Time) Category {
	ageMonths := repo.ageMonths(now)
	daysSinceUpdate := repo.daysSinceUpdate(now)

	if repo.Fork && repo.UserCommits >= ossCommitThreshold {
		return CategoryOSS
	}
	if workScore >= 70 && ageMonths >= 6 && repo.HasReadme {
		return CategoryProfessional
	}
	if daysSinceUpdate < 30 && workScore >= 50 {
		return CategoryActive
	}
	if ageMonths < 3 || repo.estimatedCommits() < 10 || repo.SizeKB < 100 {
		return CategoryLearning
	}
	return CategoryNotable
}
