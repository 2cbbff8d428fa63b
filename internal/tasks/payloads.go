package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeGitHubAnalyze = "github:analyze"
	TypeMatchRefresh  = "match:refresh"
)

// GitHubAnalyzePayload 描述分析候选人 GitHub 档案所需的最小信息。
type GitHubAnalyzePayload struct {
	CandidateID   uint   `json:"candidate_id"`
	CorrelationID string `json:"correlation_id"`
}

// MatchRefreshPayload 描述刷新职位匹配缓存所需的最小信息。
type MatchRefreshPayload struct {
	JobID         uint   `json:"job_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewGitHubAnalyzeTask 构造一个新的 GitHub 档案分析任务。
func NewGitHubAnalyzeTask(candidateID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(GitHubAnalyzePayload{
		CandidateID:   candidateID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGitHubAnalyze, payload), nil
}

// NewMatchRefreshTask 构造一个新的职位匹配刷新任务。
func NewMatchRefreshTask(jobID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(MatchRefreshPayload{
		JobID:         jobID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMatchRefresh, payload), nil
}
