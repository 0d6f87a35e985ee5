package dto

import (
	"time"

	"assembly-qc/internal/model"
)

// ── 看板模块 DTO ──

// DashboardRequest 班次看板查询参数
// Date 缺省为今天，Shift 缺省为白班
type DashboardRequest struct {
	Date  string `form:"date"`
	Shift string `form:"shift" binding:"omitempty,oneof=day night"`
	Model string `form:"model"`
}

// WindowResponse 班次时间窗口
type WindowResponse struct {
	Date  string    `json:"date"`
	Shift string    `json:"shift"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// KPIResponse 班次 KPI
type KPIResponse struct {
	Plan                int64   `json:"plan"`
	OK                  int64   `json:"ok"`
	NG                  int64   `json:"ng"`
	Rework              int64   `json:"rework"`
	Total               int64   `json:"total"`
	OKLeft              int64   `json:"ok_left"`
	OKRight             int64   `json:"ok_right"`
	PlanVariance        int64   `json:"variance"` // OK - 计划
	CycleTimeSeconds    int     `json:"cycle_time_seconds"`
	ExpectedQuantity    int64   `json:"expected_quantity"`
	EfficiencyPct       float64 `json:"efficiency"`
	TimeVarianceMinutes int64   `json:"time_variance_minutes"` // 正数超前，负数落后
	Status              string  `json:"status"`                // fast | slow | on_track
}

// DashboardResponse 班次看板
type DashboardResponse struct {
	Window  WindowResponse      `json:"window"`
	KPI     KPIResponse         `json:"kpi"`
	Defects []model.DefectCount `json:"defects"`
	Hourly  []model.HourlyCount `json:"hourly"`
	Racks   []RackResponse      `json:"racks"`
}
