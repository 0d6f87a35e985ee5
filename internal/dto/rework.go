package dto

// ── 返工模块 DTO ──

// UpdateReworkRequest 返工复检结果
// Inspector 缺省为当前登录用户姓名
type UpdateReworkRequest struct {
	NewStatus string `json:"new_status" binding:"required,oneof=OK NG REWORK"`
	Inspector string `json:"inspector"  binding:"omitempty,max=100"`
}

// ReworkHistoryRequest 返工历史查询参数，缺省为今天
type ReworkHistoryRequest struct {
	Start string `form:"start"`
	End   string `form:"end"`
}
