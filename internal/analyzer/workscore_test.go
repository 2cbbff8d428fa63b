package analyzer

import (
	"testing"
	"time"
)

var scoreNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestWorkScore_CapsAt100(t *testing.T) {
	repo := Repository{
		Name:        "flagship",
		Description: "a long description well over twenty characters",
		SizeKB:      6 * 1024,
		Stars:       20,
		Forks:       5,
		CreatedAt:   scoreNow.AddDate(-1, -2, 0),
		UpdatedAt:   scoreNow.AddDate(0, 0, -3),
		UserCommits: 150,
		HasReadme:   true,
		Owned:       true,
	}

	if got := WorkScore(repo, scoreNow); got != 100 {
		t.Fatalf("expected capped score 100, got %d", got)
	}
}

func TestWorkScore_Bounds(t *testing.T) {
	cases := []struct {
		name string
		repo Repository
	}{
		{"empty fork", Repository{Fork: true, CreatedAt: scoreNow.AddDate(-2, 0, 0), UpdatedAt: scoreNow.AddDate(-2, 0, 0)}},
		{"fresh learning repo", Repository{SizeKB: 40, CreatedAt: scoreNow.AddDate(0, 0, -5), UpdatedAt: scoreNow.AddDate(0, 0, -1), Owned: true}},
		{"stale original", Repository{SizeKB: 800, UserCommits: 30, CreatedAt: scoreNow.AddDate(-3, 0, 0), UpdatedAt: scoreNow.AddDate(-1, 0, 0), Owned: true}},
		{"active oss fork", Repository{Fork: true, SizeKB: 2048, UserCommits: 60, CreatedAt: scoreNow.AddDate(0, -8, 0), UpdatedAt: scoreNow.AddDate(0, 0, -2)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WorkScore(tc.repo, scoreNow)
			if got < 0 || got > 100 {
				t.Fatalf("score %d out of [0,100]", got)
			}
		})
	}
}

func TestWorkScore_CommitDepthDominatesWithoutStars(t *testing.T) {
	base := Repository{
		SizeKB:    500,
		CreatedAt: scoreNow.AddDate(0, -7, 0),
		UpdatedAt: scoreNow.AddDate(0, 0, -10),
		Owned:     true,
	}

	shallow := base
	shallow.UserCommits = 5
	deep := base
	deep.UserCommits = 120

	if WorkScore(deep, scoreNow) <= WorkScore(shallow, scoreNow) {
		t.Fatalf("deep commit history should outscore shallow one: deep=%d shallow=%d",
			WorkScore(deep, scoreNow), WorkScore(shallow, scoreNow))
	}
}
