package matching

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"nexthire/internal/analyzer"
)

type fakeStore struct {
	job        *Job
	candidates []Candidate
}

func (s *fakeStore) GetJob(_ context.Context, jobID uint) (*Job, error) {
	if s.job == nil || s.job.ID != jobID {
		return nil, ErrNotFound
	}
	return s.job, nil
}

func (s *fakeStore) ListCandidates(_ context.Context) ([]Candidate, error) {
	return s.candidates, nil
}

func newTestEngine(store Store) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return NewEngine(store, DefaultConfig(), logger).WithClock(func() time.Time { return now })
}

func TestFindMatches_RejectsZeroJobID(t *testing.T) {
	engine := newTestEngine(&fakeStore{})

	_, err := engine.FindMatches(context.Background(), 0, 10)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFindMatches_JobNotFound(t *testing.T) {
	engine := newTestEngine(&fakeStore{})

	_, err := engine.FindMatches(context.Background(), 7, 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindMatches_FiltersAndOrders(t *testing.T) {
	job := &Job{ID: 1, RequiredSkills: []string{"go", "redis"}, ExperienceLevel: LevelMid}
	store := &fakeStore{
		job: job,
		candidates: []Candidate{
			{ID: 1, FullName: "Weak", Skills: []string{"go"}, ExperienceYears: intPtr(3)},
			{ID: 2, FullName: "Strong", Skills: []string{"go", "redis"}, ExperienceYears: intPtr(4), HighestLevel: levelPtr(InterviewL3), AvgScore: float64Ptr(90), TotalInterviews: 3},
			{ID: 3, FullName: "Off-profile", Skills: []string{"cobol"}, ExperienceYears: intPtr(4)},
		},
	}
	engine := newTestEngine(store)

	matches, err := engine.FindMatches(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("expected the off-profile candidate filtered out, got %d matches", len(matches))
	}
	if matches[0].CandidateID != 2 {
		t.Fatalf("expected the strong candidate first, got %d", matches[0].CandidateID)
	}
	if matches[0].Score <= matches[1].Score {
		t.Fatalf("expected descending scores: %d then %d", matches[0].Score, matches[1].Score)
	}
}

func TestFindMatches_TieBreaksOnQualityScore(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	job := &Job{ID: 1, RequiredSkills: []string{"go", "redis"}, ExperienceLevel: LevelMid}
	store := &fakeStore{
		job: job,
		candidates: []Candidate{
			// 40 技能 + 20 经验 = 60，质量 0
			{ID: 1, Skills: []string{"go", "redis"}, ExperienceYears: intPtr(4)},
			// 40 技能 + 15 经验 + 5 GitHub = 60，质量 5
			{ID: 2, Skills: []string{"go", "redis"}, ExperienceYears: intPtr(7), GitHub: &analyzer.Analysis{AnalysisDate: now.AddDate(0, 0, -100)}},
		},
	}
	engine := newTestEngine(store)

	matches, err := engine.FindMatches(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Score != matches[1].Score {
		t.Fatalf("scenario requires a tie, got %d and %d", matches[0].Score, matches[1].Score)
	}
	if matches[0].CandidateID != 2 {
		t.Fatalf("expected the higher quality score to win the tie, got candidate %d", matches[0].CandidateID)
	}
}

func TestFindMatches_Deterministic(t *testing.T) {
	job := &Job{ID: 1, RequiredSkills: []string{"go"}, ExperienceLevel: LevelEntry}
	store := &fakeStore{
		job: job,
		candidates: []Candidate{
			{ID: 1, Skills: []string{"go"}, ExperienceYears: intPtr(1)},
			{ID: 2, Skills: []string{"go", "react"}, ExperienceYears: intPtr(2), TotalInterviews: 1},
		},
	}
	engine := newTestEngine(store)

	first, err := engine.FindMatches(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := engine.FindMatches(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("runs disagree on match count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].CandidateID != second[i].CandidateID || first[i].Score != second[i].Score {
			t.Fatalf("run results diverge at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestFindMatches_LimitTruncates(t *testing.T) {
	job := &Job{ID: 1, RequiredSkills: []string{"go"}, ExperienceLevel: LevelEntry}
	store := &fakeStore{job: job}
	for i := uint(1); i <= 5; i++ {
		store.candidates = append(store.candidates, Candidate{ID: i, Skills: []string{"go"}, ExperienceYears: intPtr(1)})
	}
	engine := newTestEngine(store)

	matches, err := engine.FindMatches(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected limit applied, got %d", len(matches))
	}
}
