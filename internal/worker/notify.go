package worker

// 统一的 WebSocket 消息协议（通过 Redis Pub/Sub 转发给前端）。
// 注意：这里的字段名与前端解析保持一致。
type AnalysisNotifyMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	CandidateID   uint   `json:"candidate_id"`
	Username      string `json:"username,omitempty"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

// MatchRefreshNotifyMessage 在匹配缓存刷新完成后推送给发起刷新的招聘者。
type MatchRefreshNotifyMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	JobID         uint   `json:"job_id"`
	MatchCount    int    `json:"match_count"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

// 消息类型常量。
const (
	notifyTypeAnalysis     = "github_analysis"
	notifyTypeMatchRefresh = "match_refresh"
)
