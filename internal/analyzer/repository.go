// Package analyzer 负责给候选人的 GitHub 仓库打分，并挑选最能体现真实
// 工程能力的项目。打分刻意弱化 star 数：大多数候选人没有 star，
// 因此启发式更依赖提交深度、项目持续时间与维护新鲜度。
package analyzer

import "time"

// Repository 是所有打分函数的输入。只保留启发式需要的字段，
// 由抓取层提前解析好（包括按用户统计的提交数）。
type Repository struct {
	Name        string
	Description string
	HTMLURL     string
	Language    string
	// LanguageBytes 按语言名映射代码字节数，来自仓库 languages 接口。
	LanguageBytes map[string]int64

	Stars  int
	Forks  int
	SizeKB int

	CreatedAt time.Time
	UpdatedAt time.Time

	Fork     bool
	Archived bool
	// Owned 表示仓库归候选人本人所有（而非仅有推送权限）。
	Owned bool
	// UserCommits 统计可归属候选人的提交数，不是仓库总提交数。
	// 为零表示无法解析。
	UserCommits int
	HasReadme   bool
}

// estimatedCommits 返回候选人的提交数；拿不到按用户统计时退化为按体积估算。
func (r Repository) estimatedCommits() int {
	if r.UserCommits > 0 {
		return r.UserCommits
	}
	est := r.SizeKB / 50
	if est < 1 {
		est = 1
	}
	return est
}

// daysActive 返回仓库存在的天数，最小为 1。
func (r Repository) daysActive(now time.Time) float64 {
	days := now.Sub(r.CreatedAt).Hours() / 24
	if days < 1 {
		return 1
	}
	return days
}

func (r Repository) daysSinceUpdate(now time.Time) float64 {
	return now.Sub(r.UpdatedAt).Hours() / 24
}

// ageMonths 以 30 天为一个月折算仓库年龄。
func (r Repository) ageMonths(now time.Time) float64 {
	return r.daysActive(now) / 30
}

// ScoredRepo 是附带工作分与类别的仓库。
type ScoredRepo struct {
	Repository
	WorkScore int
	Category  Category
}
