package matching

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// 各分量的权重上限。合计 100；每个分量单独封顶，总分最后再截断一次。
const (
	skillWeight     = 40
	interviewWeight = 25
	expWeight       = 20
	githubWeight    = 10

	reasonSeparator = " • "
)

// RankResult 是单个候选人的第二阶段输出。
type RankResult struct {
	Score      int
	Breakdown  Breakdown
	Reasoning  string
	Confidence Confidence

	// SkillMatch 对外暴露，调用方无需重复解析即可报告命中/缺失技能。
	SkillMatch SkillMatch
}

// Rank 用加权多因子模型给候选人与职位打分：技能 40、面试质量 25、
// 经验 20、GitHub 信号 10、新鲜度 5。数据缺失时对应分量降为零；
// Rank 从不失败。
func (cfg Config) Rank(candidate Candidate, job Job, now time.Time) RankResult {
	var breakdown Breakdown
	reasons := make([]string, 0, 5)

	// 技能匹配。部分命中按一半计分。
	match := ResolveSkills(candidate.Skills, job.RequiredSkills)
	exact := len(match.Matching)
	totalRequired := len(job.RequiredSkills)
	if totalRequired == 0 {
		totalRequired = 1
	}
	skillScore := (float64(exact) + 0.5*float64(len(match.Partial))) / float64(totalRequired) * skillWeight
	breakdown.SkillMatch = int(math.Round(skillScore))

	ratio := float64(exact) / float64(totalRequired)
	switch {
	case ratio >= 0.8:
		reasons = append(reasons, fmt.Sprintf("Excellent skill match: %d/%d required skills", exact, totalRequired))
	case ratio >= 0.5:
		reasons = append(reasons, fmt.Sprintf("Good skill match: %d/%d required skills", exact, totalRequired))
	default:
		reasons = append(reasons, fmt.Sprintf("Partial skill match: %d/%d required skills", exact, totalRequired))
	}

	// 面试质量，按达到的级别缩放。
	if candidate.HighestLevel != nil && candidate.AvgScore != nil && *candidate.AvgScore > 0 {
		weight, ok := cfg.LevelWeights[*candidate.HighestLevel]
		if !ok {
			weight = 0.6
		}
		avg := *candidate.AvgScore
		breakdown.InterviewQuality = int(math.Round(avg / 100 * interviewWeight * weight))

		performance := "good"
		switch {
		case avg >= 80:
			performance = "excellent"
		case avg >= 65:
			performance = "strong"
		}
		reasons = append(reasons, fmt.Sprintf("%s interview with %s performance (%d%%)",
			*candidate.HighestLevel, performance, int(math.Round(avg))))
	} else {
		reasons = append(reasons, "No interview assessment completed yet")
	}

	// 经验契合度：随与该级别理想年限的距离衰减。
	years := candidate.experienceYears()
	bounds := experienceRanges[job.ExperienceLevel]
	var expScore float64
	switch {
	case years >= bounds.min && years <= bounds.max:
		distance := math.Abs(float64(years - bounds.ideal))
		expScore = math.Max(15, expWeight*(1-distance/10))
		reasons = append(reasons, fmt.Sprintf("Experience level matches (%d years)", years))
	case years > bounds.max:
		expScore = 12
		reasons = append(reasons, fmt.Sprintf("Highly experienced (%d years, may be overqualified)", years))
	default:
		expScore = math.Max(0, float64(8-(bounds.min-years)*2))
		reasons = append(reasons, fmt.Sprintf("Less experience than typical (%d years for a %s role)", years, job.ExperienceLevel))
	}
	breakdown.ExperienceMatch = int(math.Round(expScore))

	// GitHub 质量信号。
	if candidate.GitHub != nil {
		github := candidate.GitHub
		score := 5 // base for having verified GitHub data

		if len(github.NotableProjects) > 0 {
			sum := 0
			for _, p := range github.NotableProjects {
				sum += p.QualityScore
			}
			avg := float64(sum) / float64(len(github.NotableProjects))
			switch {
			case avg >= 70:
				score += 3
			case avg >= 50:
				score += 2
			default:
				score++
			}
		}

		verified := verifiedSkillMatches(github.Skills, match.Matching)
		switch {
		case verified >= 3:
			score += 2
		case verified >= 1:
			score++
		}

		if score > githubWeight {
			score = githubWeight
		}
		breakdown.GitHubQuality = score
		reasons = append(reasons, fmt.Sprintf("GitHub verified: %d repos, %d stars", github.TotalRepos, github.TotalStars))
	} else {
		reasons = append(reasons, "No GitHub portfolio verified")
	}

	// 新鲜度加分。两档 GitHub 新鲜度加分互斥。
	recency := 0
	if candidate.TotalInterviews > 0 {
		recency += cfg.InterviewActivityBonus
		reasons = append(reasons, fmt.Sprintf("Active on platform (%d interviews)", candidate.TotalInterviews))
	}
	if candidate.GitHub != nil && !candidate.GitHub.AnalysisDate.IsZero() {
		days := int(now.Sub(candidate.GitHub.AnalysisDate).Hours() / 24)
		if days < cfg.FreshAnalysisDays {
			recency += cfg.FreshAnalysisBonus
		} else if days < cfg.RecentAnalysisDays {
			recency += cfg.RecentAnalysisBonus
		}
	}
	if recency > cfg.RecencyCap {
		recency = cfg.RecencyCap
	}
	breakdown.RecencyBonus = recency

	total := breakdown.SkillMatch + breakdown.InterviewQuality + breakdown.ExperienceMatch +
		breakdown.GitHubQuality + breakdown.RecencyBonus
	if total > 100 {
		total = 100
	}

	return RankResult{
		Score:      total,
		Breakdown:  breakdown,
		Reasoning:  strings.Join(reasons, reasonSeparator),
		Confidence: cfg.confidence(candidate),
		SkillMatch: match,
	}
}

// confidence 统计支撑分数的数据信号数量。
func (cfg Config) confidence(candidate Candidate) Confidence {
	signals := 0
	if len(candidate.Skills) > 0 {
		signals++
	}
	if candidate.HighestLevel != nil {
		signals++
	}
	if candidate.GitHub != nil {
		signals++
	}
	if candidate.ExperienceYears != nil {
		signals++
	}
	if candidate.TotalInterviews > 0 {
		signals++
	}
	switch {
	case signals >= cfg.HighConfidenceSignals:
		return ConfidenceHigh
	case signals >= cfg.MediumConfidenceSignals:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func verifiedSkillMatches(githubSkills, matchingSkills []string) int {
	count := 0
	for _, s := range githubSkills {
		for _, m := range matchingSkills {
			if strings.EqualFold(s, m) {
				count++
				break
			}
		}
	}
	return count
}
