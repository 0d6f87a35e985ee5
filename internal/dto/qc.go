package dto

import "time"

// ── 检验记录模块 DTO ──

// Operator 当前登录的作业员（由 Token 注入）
type Operator struct {
	ID   string
	Name string
}

// LogQCRequest 提交单件检验结果
type LogQCRequest struct {
	Model        string  `json:"model"         binding:"required,max=100"`
	PartCode     *string `json:"part_code"     binding:"omitempty,max=100"`
	SerialNumber string  `json:"serial_number" binding:"omitempty,max=100"`
	Status       string  `json:"status"        binding:"required,oneof=OK NG REWORK"`
	Defect       *string `json:"defect"        binding:"omitempty,max=200"`
	Side         *string `json:"side"          binding:"omitempty,oneof=L R"`
}

// OperatorStatsRequest 作业员当日统计查询参数
type OperatorStatsRequest struct {
	Model string `form:"model"`
}

// InspectionEventResponse 检验记录
type InspectionEventResponse struct {
	ID              string     `json:"id"`
	Model           string     `json:"model"`
	PartCode        *string    `json:"part_code"`
	SerialNumber    string     `json:"serial_number"`
	Status          string     `json:"status"`
	Defect          *string    `json:"defect"`
	Side            *string    `json:"side"`
	Timestamp       time.Time  `json:"timestamp"`
	OperatorID      string     `json:"operator_id"`
	OperatorName    string     `json:"operator_name"`
	ReworkCheckedBy *string    `json:"rework_checked_by,omitempty"`
	ReworkCheckedAt *time.Time `json:"rework_checked_at,omitempty"`
}

// RackResponse 料架完成情况
// 恒有 TotalOK == FullRacks*PackSize + PendingPieces
type RackResponse struct {
	Model         string `json:"model"`
	PartCode      string `json:"part_code"`
	TotalOK       int64  `json:"total_ok"`
	FullRacks     int64  `json:"full_racks"`
	PendingPieces int64  `json:"pending_pieces"`
}

// OperatorStatsResponse 作业员当日统计
type OperatorStatsResponse struct {
	OK      int64          `json:"ok"`
	NG      int64          `json:"ng"`
	Rework  int64          `json:"rework"`
	Total   int64          `json:"total"`
	OKLeft  int64          `json:"ok_left"`
	OKRight int64          `json:"ok_right"`
	Racks   []RackResponse `json:"racks"`
}

// ResetTodayResponse 清空当日记录结果
type ResetTodayResponse struct {
	Deleted int64 `json:"deleted"`
}
