package errcode

// 通过 WebSocket 推送给客户端的通知错误码。
// - 0:    成功
// - 4xxx: 可恢复/警告（处理已继续完成）
// - 5xxx: 系统错误（处理中断）
const (
	OK                 = 0
	UpstreamIncomplete = 4004
	SystemError        = 5000
)
