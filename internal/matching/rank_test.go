package matching

import (
	"strings"
	"testing"
	"time"

	"nexthire/internal/analyzer"
)

var rankNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func float64Ptr(v float64) *float64 { return &v }

func levelPtr(l InterviewLevel) *InterviewLevel { return &l }

func TestRank_WeightedScenario(t *testing.T) {
	cfg := DefaultConfig()
	job := Job{RequiredSkills: []string{"Go", "React", "Kubernetes"}, ExperienceLevel: LevelMid}
	candidate := Candidate{
		Skills:          []string{"go", "react"},
		ExperienceYears: intPtr(4),
		HighestLevel:    levelPtr(InterviewL2),
		AvgScore:        float64Ptr(75),
		TotalInterviews: 2,
	}

	result := cfg.Rank(candidate, job, rankNow)

	want := Breakdown{
		SkillMatch:       27, // 2/3 of 40
		InterviewQuality: 16, // 75% of 25, scaled by the L2 weight
		ExperienceMatch:  20, // exactly the mid ideal
		GitHubQuality:    0,
		RecencyBonus:     2,
	}
	if result.Breakdown != want {
		t.Fatalf("breakdown mismatch:\n got %+v\nwant %+v", result.Breakdown, want)
	}
	if result.Score != 65 {
		t.Fatalf("expected total 65, got %d", result.Score)
	}
	if result.Confidence != ConfidenceHigh {
		t.Fatalf("4 signals should be high confidence, got %s", result.Confidence)
	}
	if !strings.Contains(result.Reasoning, "Good skill match") {
		t.Fatalf("reasoning should mention the skill ratio: %s", result.Reasoning)
	}
}

func TestRank_EmptyCandidateStaysInBounds(t *testing.T) {
	cfg := DefaultConfig()
	job := Job{RequiredSkills: []string{"go"}, ExperienceLevel: LevelSenior}

	result := cfg.Rank(Candidate{}, job, rankNow)

	if result.Score < 0 || result.Score > 100 {
		t.Fatalf("score %d out of [0,100]", result.Score)
	}
	if result.Breakdown.InterviewQuality != 0 || result.Breakdown.GitHubQuality != 0 {
		t.Fatalf("missing data must contribute zero: %+v", result.Breakdown)
	}
	if result.Confidence != ConfidenceLow {
		t.Fatalf("no signals should be low confidence, got %s", result.Confidence)
	}
}

func TestRank_GitHubRecencyTiersAreExclusive(t *testing.T) {
	cfg := DefaultConfig()
	job := Job{RequiredSkills: []string{"go"}, ExperienceLevel: LevelMid}

	fresh := Candidate{
		Skills: []string{"go"},
		GitHub: &analyzer.Analysis{AnalysisDate: rankNow.AddDate(0, 0, -10)},
	}
	recent := fresh
	recent.GitHub = &analyzer.Analysis{AnalysisDate: rankNow.AddDate(0, 0, -60)}
	stale := fresh
	stale.GitHub = &analyzer.Analysis{AnalysisDate: rankNow.AddDate(0, 0, -120)}

	if got := cfg.Rank(fresh, job, rankNow).Breakdown.RecencyBonus; got != cfg.FreshAnalysisBonus {
		t.Fatalf("fresh analysis: expected bonus %d, got %d", cfg.FreshAnalysisBonus, got)
	}
	if got := cfg.Rank(recent, job, rankNow).Breakdown.RecencyBonus; got != cfg.RecentAnalysisBonus {
		t.Fatalf("recent analysis: expected bonus %d, got %d", cfg.RecentAnalysisBonus, got)
	}
	if got := cfg.Rank(stale, job, rankNow).Breakdown.RecencyBonus; got != 0 {
		t.Fatalf("stale analysis: expected no bonus, got %d", got)
	}
}

func TestRank_GitHubQualityCapped(t *testing.T) {
	cfg := DefaultConfig()
	job := Job{RequiredSkills: []string{"go", "redis", "postgres"}, ExperienceLevel: LevelMid}
	candidate := Candidate{
		Skills:          []string{"go", "redis", "postgres"},
		ExperienceYears: intPtr(4),
		GitHub: &analyzer.Analysis{
			Skills: []string{"Go", "Redis", "Postgres"},
			NotableProjects: []analyzer.NotableProject{
				{Name: "a", QualityScore: 95},
				{Name: "b", QualityScore: 88},
			},
			AnalysisDate: rankNow.AddDate(0, 0, -200),
		},
	}

	result := cfg.Rank(candidate, job, rankNow)
	if result.Breakdown.GitHubQuality != 10 {
		t.Fatalf("expected github component capped at 10, got %d", result.Breakdown.GitHubQuality)
	}
}

func TestConfidence_Thresholds(t *testing.T) {
	cfg := DefaultConfig()

	medium := Candidate{Skills: []string{"go"}, ExperienceYears: intPtr(3)}
	if got := cfg.confidence(medium); got != ConfidenceMedium {
		t.Fatalf("2 signals should be medium, got %s", got)
	}

	high := Candidate{
		Skills:          []string{"go"},
		ExperienceYears: intPtr(3),
		HighestLevel:    levelPtr(InterviewL1),
		GitHub:          &analyzer.Analysis{},
	}
	if got := cfg.confidence(high); got != ConfidenceHigh {
		t.Fatalf("4 signals should be high, got %s", got)
	}
}
