package gemini

import (
	"strings"
	"testing"

	"nexthire/internal/analyzer"
)

const sampleAssessment = `{
  "skills": ["Go", "TypeScript"],
  "proficiency_scores": {"Go": 9, "TypeScript": 6},
  "projects": [
    {"name": "orderbook", "quality_score": 82, "highlights": "Well-factored matching engine with thorough tests."},
    {"name": "dotfiles", "quality_score": 140, "highlights": "Personal configuration."}
  ],
  "overall_assessment": "Strong backend engineer with production Go experience.",
  "recommendation": "Hire."
}`

func TestDecodeAssessment_BindsAllFields(t *testing.T) {
	result, err := decodeAssessment(sampleAssessment)
	if err != nil {
		t.Fatalf("decodeAssessment returned error: %v", err)
	}

	if got := len(result.Skills); got != 2 {
		t.Fatalf("expected 2 skills, got %d", got)
	}
	if result.ProficiencyScores["Go"] != 9 || result.ProficiencyScores["TypeScript"] != 6 {
		t.Fatalf("proficiency scores not bound: %v", result.ProficiencyScores)
	}
	if got := len(result.NotableProjects); got != 2 {
		t.Fatalf("expected 2 notable projects, got %d", got)
	}

	first := result.NotableProjects[0]
	if first.Name != "orderbook" {
		t.Errorf("project name = %q, want orderbook", first.Name)
	}
	if first.QualityScore != 82 {
		t.Errorf("quality score = %d, want 82", first.QualityScore)
	}
	if first.Description != "Well-factored matching engine with thorough tests." {
		t.Errorf("description not bound from highlights: %q", first.Description)
	}

	if result.OverallAssessment == "" {
		t.Error("overall assessment is empty")
	}
	if result.Recommendation != "Hire." {
		t.Errorf("recommendation = %q, want Hire.", result.Recommendation)
	}
}

func TestDecodeAssessment_StripsCodeFence(t *testing.T) {
	fenced := "```json\n" + sampleAssessment + "\n```"

	result, err := decodeAssessment(fenced)
	if err != nil {
		t.Fatalf("decodeAssessment returned error: %v", err)
	}
	if len(result.Skills) != 2 || len(result.NotableProjects) != 2 {
		t.Fatalf("fenced payload not fully bound: skills=%d projects=%d",
			len(result.Skills), len(result.NotableProjects))
	}
}

func TestDecodeAssessment_RejectsNonJSON(t *testing.T) {
	if _, err := decodeAssessment("I cannot answer that."); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

// 提示词中的示例字段名必须与 assessmentPayload 的标签保持一致，
// 否则模型按提示词返回的文档将无法绑定。
func TestBuildPrompt_NamesPayloadFields(t *testing.T) {
	input := analyzer.AssessmentInput{
		Username:   "octo",
		TotalRepos: 3,
		Languages:  []analyzer.LanguageStat{{Name: "Go", Bytes: 1000}},
		TopProjects: []analyzer.ScoredRepo{
			{Repository: analyzer.Repository{Name: "orderbook", Language: "Go", Stars: 12}},
		},
	}

	prompt := buildPrompt(input)
	for _, field := range []string{
		`"skills"`, `"proficiency_scores"`, `"projects"`,
		`"quality_score"`, `"highlights"`,
		`"overall_assessment"`, `"recommendation"`,
	} {
		if !strings.Contains(prompt, field) {
			t.Errorf("prompt does not mention %s", field)
		}
	}
	if !strings.Contains(prompt, "orderbook") {
		t.Error("prompt does not list the top project")
	}
}
