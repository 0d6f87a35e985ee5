package dto

// ── 生产计划模块 DTO ──

// SetPlanRequest 设置（覆盖）生产计划
type SetPlanRequest struct {
	DateString       string `json:"date_string"        binding:"required"`
	Model            string `json:"model"              binding:"required,max=100"`
	Shift            string `json:"shift"              binding:"required,oneof=day night"`
	PartCode         string `json:"part_code"          binding:"omitempty,max=100"`
	TargetQuantity   *int   `json:"target_quantity"    binding:"required,min=0"`
	CycleTimeSeconds int    `json:"cycle_time_seconds" binding:"omitempty,min=0"`
}

// PlanListRequest 生产计划查询参数
type PlanListRequest struct {
	Date  string `form:"date"  binding:"required"`
	Shift string `form:"shift" binding:"omitempty,oneof=day night"`
	Model string `form:"model"`
}

// PlanResponse 生产计划
type PlanResponse struct {
	ID               string `json:"id"`
	DateString       string `json:"date_string"`
	Model            string `json:"model"`
	Shift            string `json:"shift"`
	PartCode         string `json:"part_code"`
	TargetQuantity   int    `json:"target_quantity"`
	CycleTimeSeconds int    `json:"cycle_time_seconds"`
	UpdatedAt        string `json:"updated_at"`
}
