package matching

import "testing"

func intPtr(v int) *int { return &v }

func TestPassesMinimum_SkillOverlap(t *testing.T) {
	cfg := DefaultConfig()
	job := Job{RequiredSkills: []string{"go", "redis", "postgres", "kubernetes"}, ExperienceLevel: LevelMid}

	hit := Candidate{Skills: []string{"go"}, ExperienceYears: intPtr(4)}
	if !cfg.PassesMinimum(hit, job) {
		t.Fatalf("1/4 skills meets the 0.25 floor and must pass")
	}

	miss := Candidate{Skills: []string{"rust"}, ExperienceYears: intPtr(4)}
	if cfg.PassesMinimum(miss, job) {
		t.Fatalf("0/4 skills must not pass")
	}
}

func TestPassesMinimum_ExperienceWindow(t *testing.T) {
	cfg := DefaultConfig()
	job := Job{RequiredSkills: []string{"go"}, ExperienceLevel: LevelMid} // mid: 2-7 years

	cases := []struct {
		years int
		want  bool
	}{
		{0, false}, // below min-1
		{1, true},  // min-1 slack
		{4, true},
		{10, true},  // max+3 slack
		{11, false}, // above max+3
	}

	for _, tc := range cases {
		c := Candidate{Skills: []string{"go"}, ExperienceYears: intPtr(tc.years)}
		if got := cfg.PassesMinimum(c, job); got != tc.want {
			t.Fatalf("years=%d: expected %v, got %v", tc.years, tc.want, got)
		}
	}
}

func TestPassesMinimum_NilExperienceCountsAsZero(t *testing.T) {
	cfg := DefaultConfig()
	entry := Job{RequiredSkills: []string{"go"}, ExperienceLevel: LevelEntry}
	senior := Job{RequiredSkills: []string{"go"}, ExperienceLevel: LevelSenior}

	c := Candidate{Skills: []string{"go"}}
	if !cfg.PassesMinimum(c, entry) {
		t.Fatalf("unknown experience must pass an entry role")
	}
	if cfg.PassesMinimum(c, senior) {
		t.Fatalf("unknown experience must not pass a senior role")
	}
}

func TestPassesMinimum_NoRequiredSkills(t *testing.T) {
	cfg := DefaultConfig()
	job := Job{ExperienceLevel: LevelEntry}

	c := Candidate{Skills: []string{"go"}, ExperienceYears: intPtr(1)}
	if cfg.PassesMinimum(c, job) {
		t.Fatalf("a job without required skills yields zero overlap and must not pass")
	}
}

func TestPassesMinimum_UnknownLevelRejects(t *testing.T) {
	cfg := DefaultConfig()
	job := Job{RequiredSkills: []string{"go"}, ExperienceLevel: "staff"}

	c := Candidate{Skills: []string{"go"}, ExperienceYears: intPtr(5)}
	if cfg.PassesMinimum(c, job) {
		t.Fatalf("unknown experience level must reject")
	}
}
