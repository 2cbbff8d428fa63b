package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// NotableProject 是分析结果中展示的一个项目。
type NotableProject struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	QualityScore int    `json:"quality_score"`
	URL          string `json:"url"`
	Stars        int    `json:"stars"`
	Language     string `json:"language,omitempty"`
	Commits      int    `json:"commits"`
	DaysActive   int    `json:"days_active"`
	Category     string `json:"category,omitempty"`
}

// Analysis 是仓库分析的持久化结果。展示项目不超过三个，
// 所有质量分都被截断到 [0,100]。
type Analysis struct {
	Username          string           `json:"username"`
	ProfileURL        string           `json:"profile_url,omitempty"`
	Bio               string           `json:"bio,omitempty"`
	TotalRepos        int              `json:"total_repos"`
	TotalStars        int              `json:"total_stars"`
	TotalCommits      int              `json:"total_commits"`
	ActiveRepos       int              `json:"active_repos"`
	CodeVolume        string           `json:"code_volume"`
	Languages         map[string]int64 `json:"languages"`
	Skills            []string         `json:"skills"`
	ProficiencyScores map[string]int   `json:"proficiency_scores"`
	NotableProjects   []NotableProject `json:"notable_projects"`
	OverallAssessment string           `json:"overall_assessment"`
	Recommendation    string           `json:"recommendation"`
	AnalysisDate      time.Time        `json:"analysis_date"`
}

// Distribution 统计各类别下的仓库数量。
type Distribution struct {
	Professional int
	Active       int
	OSS          int
	Learning     int
}

// AssessmentInput 是交给文本生成协作方的摘要。
type AssessmentInput struct {
	Username         string
	Bio              string
	TotalRepos       int
	CodeVolume       string
	EstimatedCommits int
	Languages        []LanguageStat
	TopProjects      []ScoredRepo
	Distribution     Distribution
	Now              time.Time
}

// LanguageStat 是某种语言在全部仓库中的字节总量。
type LanguageStat struct {
	Name  string
	Bytes int64
}

// AssessedProject 是协作方对一个入选项目的评价。
type AssessedProject struct {
	Name         string
	Description  string
	QualityScore int
	Category     string
}

// AssessmentResult 承载协作方产出的文字与技能字段。展示哪些项目
// 由本包决定，协作方只能针对给定的项目作评价。
type AssessmentResult struct {
	Skills            []string
	ProficiencyScores map[string]int
	NotableProjects   []AssessedProject
	OverallAssessment string
	Recommendation    string
}

// Assessor 生成分析结果中的自由文本部分。实现方可以调用外部模型；
// 失败时 Analyze 退化为确定性兜底。
type Assessor interface {
	Assess(ctx context.Context, input AssessmentInput) (*AssessmentResult, error)
}

// Profile 是候选人的 GitHub 账号元信息。
type Profile struct {
	Username   string
	ProfileURL string
	Bio        string
}

// Analyzer 把打分、选择与评价协作方组合为最终的分析结果。
type Analyzer struct {
	assessor Assessor
	logger   *slog.Logger
	clock    func() time.Time
}

// Option 调整 Analyzer 的构造参数。
type Option func(*Analyzer)

// WithClock 注入时钟，便于测试。
func WithClock(clock func() time.Time) Option {
	return func(a *Analyzer) { a.clock = clock }
}

// New 构造 Analyzer。assessor 可以为 nil，此时固定走确定性兜底。
func New(assessor Assessor, logger *slog.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		assessor: assessor,
		logger:   logger,
		clock:    time.Now,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze 对全部仓库打分并汇总分析结果。统计口径只计入本人原创仓库；
// fork 只通过项目选择中的开源贡献路径参与。
func (a *Analyzer) Analyze(ctx context.Context, profile Profile, repos []Repository) (*Analysis, error) {
	now := a.clock()

	var originals []Repository
	for _, r := range repos {
		if !r.Fork && r.Owned {
			originals = append(originals, r)
		}
	}

	totalStars, totalSizeKB, totalCommits, activeRepos := 0, 0, 0, 0
	for _, r := range originals {
		totalStars += r.Stars
		totalSizeKB += r.SizeKB
		totalCommits += r.UserCommits
		if r.daysSinceUpdate(now) < 90 {
			activeRepos++
		}
	}

	languages := languageStats(repos)
	topProjects := SelectTopProjects(repos, now)

	estimated := 0
	for _, p := range topProjects {
		estimated += p.estimatedCommits()
	}
	if totalCommits == 0 {
		totalCommits = estimated
	}

	analysis := &Analysis{
		Username:        profile.Username,
		ProfileURL:      profile.ProfileURL,
		Bio:             profile.Bio,
		TotalRepos:      len(originals),
		TotalStars:      totalStars,
		TotalCommits:    totalCommits,
		ActiveRepos:     activeRepos,
		CodeVolume:      formatCodeVolume(totalSizeKB),
		Languages:       languageMap(languages),
		NotableProjects: nil,
		AnalysisDate:    now,
	}

	input := AssessmentInput{
		Username:         profile.Username,
		Bio:              profile.Bio,
		TotalRepos:       len(repos),
		CodeVolume:       analysis.CodeVolume,
		EstimatedCommits: estimated,
		Languages:        languages,
		TopProjects:      topProjects,
		Distribution:     distribution(repos, now),
		Now:              now,
	}

	result := a.assess(ctx, input)

	analysis.Skills = result.Skills
	analysis.ProficiencyScores = result.ProficiencyScores
	analysis.OverallAssessment = result.OverallAssessment
	analysis.Recommendation = result.Recommendation
	analysis.NotableProjects = buildNotableProjects(result.NotableProjects, topProjects, now)

	return analysis, nil
}

func (a *Analyzer) assess(ctx context.Context, input AssessmentInput) *AssessmentResult {
	if a.assessor != nil {
		result, err := a.assessor.Assess(ctx, input)
		if err == nil && result != nil {
			return result
		}
		if err != nil {
			a.logger.Warn("assessment collaborator failed, using fallback",
				slog.String("username", input.Username),
				slog.Any("error", err),
			)
		}
	}
	return fallbackAssessment(input)
}

// fallbackAssessment 在没有文本生成器时，从语言占比推导技能，
// 并按工作分折算项目质量。
func fallbackAssessment(input AssessmentInput) *AssessmentResult {
	skills := make([]string, 0, len(input.Languages))
	proficiency := make(map[string]int, len(input.Languages))
	for idx, lang := range input.Languages {
		skills = append(skills, lang.Name)
		p := 10 - idx
		if p < 5 {
			p = 5
		}
		proficiency[lang.Name] = p
	}

	projects := make([]AssessedProject, 0, len(input.TopProjects))
	for _, repo := range input.TopProjects {
		desc := repo.Description
		if desc == "" {
			desc = "Notable project"
		}
		quality := repo.WorkScore + 20
		if quality > 100 {
			quality = 100
		}
		if quality < 50 {
			quality = 50
		}
		projects = append(projects, AssessedProject{
			Name:         repo.Name,
			Description:  desc,
			QualityScore: quality,
			Category:     string(repo.Category),
		})
	}

	primary := "various languages"
	if len(input.Languages) > 0 {
		primary = input.Languages[0].Name
	}

	return &AssessmentResult{
		Skills:            skills,
		ProficiencyScores: proficiency,
		NotableProjects:   projects,
		OverallAssessment: fmt.Sprintf(
			"Developer with %d repositories and %s of code, primarily using %s.",
			input.TotalRepos, input.CodeVolume, primary,
		),
		Recommendation: "Focus on consistent project updates and consider contributing to open source.",
	}
}

// buildNotableProjects 把协作方评价与仓库事实合并，并维持结果约束：
// 最多三个项目、质量分落在 [0,100]、且只能是真正入选的项目。
func buildNotableProjects(assessed []AssessedProject, selected []ScoredRepo, now time.Time) []NotableProject {
	byName := make(map[string]ScoredRepo, len(selected))
	for _, repo := range selected {
		byName[repo.Name] = repo
	}

	projects := make([]NotableProject, 0, maxTopProjects)
	for _, p := range assessed {
		repo, ok := byName[p.Name]
		if !ok {
			continue
		}
		quality := p.QualityScore
		if quality <= 0 {
			quality = 50
		}
		if quality > 100 {
			quality = 100
		}
		category := p.Category
		if category == "" {
			category = string(repo.Category)
		}
		projects = append(projects, NotableProject{
			Name:         repo.Name,
			Description:  p.Description,
			QualityScore: quality,
			URL:          repo.HTMLURL,
			Stars:        repo.Stars,
			Language:     repo.Language,
			Commits:      repo.UserCommits,
			DaysActive:   int(repo.UpdatedAt.Sub(repo.CreatedAt).Hours() / 24),
			Category:     category,
		})
		if len(projects) == maxTopProjects {
			break
		}
	}
	return projects
}

func distribution(repos []Repository, now time.Time) Distribution {
	var dist Distribution
	for _, r := range repos {
		if r.SizeKB <= 0 || r.Archived {
			continue
		}
		ws := WorkScore(r, now)
		switch Categorize(r, ws, now) {
		case CategoryProfessional:
			dist.Professional++
		case CategoryActive:
			dist.Active++
		case CategoryOSS:
			dist.OSS++
		case CategoryLearning:
			dist.Learning++
		}
	}
	return dist
}

func languageStats(repos []Repository) []LanguageStat {
	totals := make(map[string]int64)
	for _, r := range repos {
		for lang, bytes := range r.LanguageBytes {
			totals[lang] += bytes
		}
	}
	stats := make([]LanguageStat, 0, len(totals))
	for lang, bytes := range totals {
		stats = append(stats, LanguageStat{Name: lang, Bytes: bytes})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Bytes != stats[j].Bytes {
			return stats[i].Bytes > stats[j].Bytes
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > 10 {
		stats = stats[:10]
	}
	return stats
}

func languageMap(stats []LanguageStat) map[string]int64 {
	m := make(map[string]int64, len(stats))
	for _, s := range stats {
		m[s.Name] = s.Bytes
	}
	return m
}

func formatCodeVolume(sizeKB int) string {
	if sizeKB > 1024 {
		return fmt.Sprintf("%.1fMB", float64(sizeKB)/1024)
	}
	return fmt.Sprintf("%dKB", sizeKB)
}
