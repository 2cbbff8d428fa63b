package analyzer

import (
	"math"
	"time"
)

// WorkScore 按 0-100 打分评估单个仓库的工程分量。各子项合计可以
// 超过 100，最后统一截断，避免个别仓库过度突出。
//
// 分值构成：
//
//	提交深度   30
//	项目成熟度 25
//	近期活跃   20
//	质量信号   15
//	代码体量   10
//	原创性     10
//	社区影响   10
//	持续性     10
func WorkScore(repo Repository, now time.Time) int {
	daysActive := repo.daysActive(now)
	daysSinceUpdate := repo.daysSinceUpdate(now)
	ageMonths := daysActive / 30
	commits := repo.estimatedCommits()

	score := 0.0

	// 提交深度。对没有 star 的候选人是最强的信号。
	switch {
	case commits >= 100:
		score += 30
	case commits >= 50:
		score += 25
	case commits >= 25:
		score += 20
	case commits >= 10:
		score += 15
	default:
		score += math.Min(float64(commits)*1.5, 10)
	}

	// 成熟度：项目持续时间与活跃维护的平衡。
	switch {
	case ageMonths >= 12 && daysSinceUpdate < 90:
		score += 25
	case ageMonths >= 6 && daysSinceUpdate < 180:
		score += 20
	case ageMonths >= 3 && daysSinceUpdate < 365:
		score += 15
	case ageMonths < 1 && daysSinceUpdate < 7:
		// 非常新但非常活跃，大概率是学习项目
		score += 10
	default:
		score += 5
	}

	// 近期活跃。
	switch {
	case daysSinceUpdate < 7:
		score += 20
	case daysSinceUpdate < 30:
		score += 15
	case daysSinceUpdate < 90:
		score += 10
	case daysSinceUpdate < 180:
		score += 5
	}

	// 质量信号。
	if repo.HasReadme {
		score += 8
	}
	if len(repo.Description) > 20 {
		score += 4
	}
	if repo.SizeKB > 100 {
		score += 3
	}

	// 代码体量。
	sizeMB := float64(repo.SizeKB) / 1024
	switch {
	case sizeMB >= 5:
		score += 10
	case sizeMB >= 1:
		score += 7
	case sizeMB >= 0.5:
		score += 5
	default:
		score += math.Min(sizeMB*10, 3)
	}

	// 原创性。有实质提交的 fork 按开源贡献计分。
	switch {
	case !repo.Fork:
		score += 10
	case commits >= 10:
		score += 7
	default:
		score += 3
	}

	// 社区影响，权重较低。
	community := repo.Stars*2 + repo.Forks
	switch {
	case community >= 20:
		score += 10
	case community >= 10:
		score += 8
	case community >= 5:
		score += 6
	case community >= 2:
		score += 4
	case community >= 1:
		score += 2
	}

	// 持续性加分，只对超过六个月的项目有意义。
	if ageMonths >= 6 {
		perMonth := float64(commits) / ageMonths
		switch {
		case perMonth >= 10:
			score += 10
		case perMonth >= 5:
			score += 7
		case perMonth >= 2:
			score += 5
		default:
			score += 3
		}
	}

	return int(math.Round(math.Min(score, 100)))
}
