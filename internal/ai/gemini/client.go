// Package gemini 基于 Google GenAI API 实现开发者画像评估步骤。
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"nexthire/internal/analyzer"
)

const defaultModel = "gemini-2.0-flash"

// Assessor 包装 Google GenAI 客户端，把仓库统计数据
// 转换成结构化的开发者评估。
type Assessor struct {
	client *genai.Client
	model  string
}

// NewAssessor 创建由 Gemini API 驱动的 Assessor。
func NewAssessor(ctx context.Context, apiKey, model string) (*Assessor, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Assessor{client: client, model: model}, nil
}

// Assess 请求模型给出技能列表、熟练度打分与逐项目的质量判断。
// 模型必须返回提示词中描述的 JSON 文档，否则报错，
// 由调用方降级到确定性评估。
func (a *Assessor) Assess(ctx context.Context, input analyzer.AssessmentInput) (*analyzer.AssessmentResult, error) {
	if a == nil || a.client == nil {
		return nil, errors.New("gemini assessor is not initialized")
	}

	prompt := buildPrompt(input)

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := collectText(resp)
	if text == "" {
		return nil, errors.New("gemini api returned no text")
	}

	return decodeAssessment(text)
}

// assessmentPayload 与提示词要求模型输出的 JSON 文档一一对应。
// 字段名变动时必须同步修改 buildPrompt 中的示例。
type assessmentPayload struct {
	Skills            []string         `json:"skills"`
	ProficiencyScores map[string]int   `json:"proficiency_scores"`
	Projects          []projectPayload `json:"projects"`
	OverallAssessment string           `json:"overall_assessment"`
	Recommendation    string           `json:"recommendation"`
}

type projectPayload struct {
	Name         string `json:"name"`
	QualityScore int    `json:"quality_score"`
	Highlights   string `json:"highlights"`
}

func decodeAssessment(text string) (*analyzer.AssessmentResult, error) {
	var payload assessmentPayload
	if err := json.Unmarshal([]byte(stripFence(text)), &payload); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}

	result := &analyzer.AssessmentResult{
		Skills:            payload.Skills,
		ProficiencyScores: payload.ProficiencyScores,
		OverallAssessment: payload.OverallAssessment,
		Recommendation:    payload.Recommendation,
	}
	for _, p := range payload.Projects {
		result.NotableProjects = append(result.NotableProjects, analyzer.AssessedProject{
			Name:         p.Name,
			Description:  p.Highlights,
			QualityScore: p.QualityScore,
		})
	}
	return result, nil
}

func buildPrompt(input analyzer.AssessmentInput) string {
	var b strings.Builder

	b.WriteString("You are a senior technical recruiter evaluating a developer's GitHub portfolio.\n\n")
	fmt.Fprintf(&b, "Developer: %s\n", input.Username)
	if input.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", input.Bio)
	}
	fmt.Fprintf(&b, "Public repositories: %d, code volume: %s, estimated commits: %d\n\n",
		input.TotalRepos, input.CodeVolume, input.EstimatedCommits)

	var totalBytes int64
	for _, lang := range input.Languages {
		totalBytes += lang.Bytes
	}
	b.WriteString("Language usage by code volume:\n")
	for _, lang := range input.Languages {
		pct := 0.0
		if totalBytes > 0 {
			pct = float64(lang.Bytes) / float64(totalBytes) * 100
		}
		fmt.Fprintf(&b, "- %s: %.1f%%\n", lang.Name, pct)
	}

	b.WriteString("\nTop projects:\n")
	for _, p := range input.TopProjects {
		fmt.Fprintf(&b, "- %s (%s): stars=%d forks=%d commits=%d size_kb=%d category=%s\n",
			p.Name, p.Language, p.Stars, p.Forks, p.UserCommits, p.SizeKB, p.Category)
		if p.Description != "" {
			fmt.Fprintf(&b, "  description: %s\n", p.Description)
		}
	}

	b.WriteString(`
Respond with only a JSON object, no prose, in this exact shape:
{
  "skills": ["skill", ...],
  "proficiency_scores": {"skill": 1-10, ...},
  "projects": [{"name": "repo name", "quality_score": 0-100, "highlights": "one sentence"}],
  "overall_assessment": "2-3 sentences",
  "recommendation": "one sentence hiring recommendation"
}
Only include projects from the list above. Scores must be integers.`)

	return b.String()
}

func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return builder.String()
}

// stripFence 去掉模型可能包裹在输出外层的 ```json 代码栅栏。
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
