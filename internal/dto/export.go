package dto

// PlanCalendarRequest 生产计划日历导出参数（闭区间）
type PlanCalendarRequest struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end"   binding:"required"`
	Model string `form:"model"`
}
