package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nexthire/internal/analyzer"
	"nexthire/internal/database"
	"nexthire/internal/matching"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCandidate(t *testing.T, db *gorm.DB, email string, skills []string) database.CandidateProfile {
	t.Helper()
	profile := database.Profile{Email: email, FullName: "Test " + email, Role: database.RoleCandidate}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	blob, err := json.Marshal(skills)
	if err != nil {
		t.Fatalf("encode skills: %v", err)
	}
	candidate := database.CandidateProfile{ProfileID: profile.ID, Skills: blob}
	if err := db.Create(&candidate).Error; err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return candidate
}

func TestGetJob_DecodesSkills(t *testing.T) {
	db := newTestDB(t)
	s := New(db)
	ctx := context.Background()

	skills, _ := json.Marshal([]string{"go", "redis"})
	row := database.JobPosting{RecruiterID: 1, Title: "Backend", RequiredSkills: skills, ExperienceLevel: "mid"}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	job, err := s.GetJob(ctx, row.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if len(job.RequiredSkills) != 2 || job.RequiredSkills[0] != "go" {
		t.Fatalf("expected decoded skills, got %v", job.RequiredSkills)
	}
	if job.ExperienceLevel != matching.LevelMid {
		t.Fatalf("expected mid level, got %s", job.ExperienceLevel)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	db := newTestDB(t)
	s := New(db)

	_, err := s.GetJob(context.Background(), 999999)
	if !errors.Is(err, matching.ErrNotFound) {
		t.Fatalf("expected matching.ErrNotFound, got %v", err)
	}
}

func TestListCandidates_MergesInterviewAggregates(t *testing.T) {
	db := newTestDB(t)
	s := New(db)
	ctx := context.Background()

	candidate := seedCandidate(t, db, "agg@example.com", []string{"go"})
	results := []database.InterviewResult{
		{CandidateProfileID: candidate.ID, Level: "L1", Score: 60},
		{CandidateProfileID: candidate.ID, Level: "L3", Score: 90},
		{CandidateProfileID: candidate.ID, Level: "L2", Score: 75},
	}
	if err := db.Create(&results).Error; err != nil {
		t.Fatalf("seed interviews: %v", err)
	}

	candidates, err := s.ListCandidates(ctx)
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}

	var got *matching.Candidate
	for i := range candidates {
		if candidates[i].ID == candidate.ID {
			got = &candidates[i]
			break
		}
	}
	if got == nil {
		t.Fatalf("seeded candidate missing from read model")
	}
	if got.HighestLevel == nil || *got.HighestLevel != matching.InterviewL3 {
		t.Fatalf("expected highest level L3, got %v", got.HighestLevel)
	}
	if got.AvgScore == nil || *got.AvgScore != 75 {
		t.Fatalf("expected average 75, got %v", got.AvgScore)
	}
	if got.TotalInterviews != 3 {
		t.Fatalf("expected 3 interviews, got %d", got.TotalInterviews)
	}
	if got.Email != "agg@example.com" {
		t.Fatalf("expected profile preloaded, got %q", got.Email)
	}
}

func TestListCandidates_NoInterviewsLeavesPointersNil(t *testing.T) {
	db := newTestDB(t)
	s := New(db)

	candidate := seedCandidate(t, db, "quiet@example.com", []string{"go"})

	candidates, err := s.ListCandidates(context.Background())
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	for _, c := range candidates {
		if c.ID != candidate.ID {
			continue
		}
		if c.HighestLevel != nil || c.AvgScore != nil || c.TotalInterviews != 0 {
			t.Fatalf("expected empty aggregates, got %+v", c)
		}
		return
	}
	t.Fatalf("seeded candidate missing from read model")
}

func TestReplaceMatches_SwapsWholesale(t *testing.T) {
	db := newTestDB(t)
	s := New(db)
	ctx := context.Background()

	jobID := uint(4001)
	first := []matching.Match{{CandidateID: 1, Score: 80}, {CandidateID: 2, Score: 70}}
	if err := s.ReplaceMatches(ctx, jobID, first); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	second := []matching.Match{{CandidateID: 3, Score: 90}}
	if err := s.ReplaceMatches(ctx, jobID, second); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	rows, err := s.ListMatches(ctx, jobID)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(rows) != 1 || rows[0].CandidateProfileID != 3 {
		t.Fatalf("expected only the second set to survive, got %+v", rows)
	}
}

func TestReplaceMatches_CapsAtLimit(t *testing.T) {
	db := newTestDB(t)
	s := New(db)
	ctx := context.Background()

	jobID := uint(4002)
	matches := make([]matching.Match, 0, MaxCachedMatches+10)
	for i := 0; i < MaxCachedMatches+10; i++ {
		matches = append(matches, matching.Match{CandidateID: uint(i + 1), Score: 100 - i})
	}
	if err := s.ReplaceMatches(ctx, jobID, matches); err != nil {
		t.Fatalf("replace: %v", err)
	}

	rows, err := s.ListMatches(ctx, jobID)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(rows) != MaxCachedMatches {
		t.Fatalf("expected %d cached rows, got %d", MaxCachedMatches, len(rows))
	}
}

func TestReplaceMatches_EmptySetClears(t *testing.T) {
	db := newTestDB(t)
	s := New(db)
	ctx := context.Background()

	jobID := uint(4003)
	if err := s.ReplaceMatches(ctx, jobID, []matching.Match{{CandidateID: 1, Score: 50}}); err != nil {
		t.Fatalf("seed replace: %v", err)
	}
	if err := s.ReplaceMatches(ctx, jobID, nil); err != nil {
		t.Fatalf("clear replace: %v", err)
	}

	rows, err := s.ListMatches(ctx, jobID)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty cache, got %d rows", len(rows))
	}
}

func TestSaveAnalysis_UpdatesCandidateRow(t *testing.T) {
	db := newTestDB(t)
	s := New(db)
	ctx := context.Background()

	candidate := seedCandidate(t, db, fmt.Sprintf("save-%d@example.com", 1), nil)

	analysis := &analyzer.Analysis{
		Username: "dev",
		Skills:   []string{"Go", "Docker"},
	}
	if err := s.SaveAnalysis(ctx, candidate.ID, "dev", analysis); err != nil {
		t.Fatalf("save analysis: %v", err)
	}

	var row database.CandidateProfile
	if err := db.First(&row, candidate.ID).Error; err != nil {
		t.Fatalf("reload candidate: %v", err)
	}
	if row.GithubUsername != "dev" {
		t.Fatalf("expected username saved, got %q", row.GithubUsername)
	}
	var skills []string
	if err := json.Unmarshal(row.Skills, &skills); err != nil {
		t.Fatalf("decode skills: %v", err)
	}
	if len(skills) != 2 || skills[0] != "Go" {
		t.Fatalf("expected verified skills refreshed, got %v", skills)
	}
	if len(row.GithubData) == 0 {
		t.Fatalf("expected analysis blob persisted")
	}
}

func TestSaveAnalysis_MissingCandidate(t *testing.T) {
	db := newTestDB(t)
	s := New(db)

	err := s.SaveAnalysis(context.Background(), 999999, "dev", &analyzer.Analysis{})
	if !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
}
