package handler

import (
	"github.com/gin-gonic/gin"

	"assembly-qc/internal/dto"
	"assembly-qc/internal/service"
	"assembly-qc/pkg/response"
)

// PlanHandler 生产计划模块 HTTP 处理器
type PlanHandler struct {
	planSvc service.PlanService
}

// NewPlanHandler 创建 PlanHandler
func NewPlanHandler(planSvc service.PlanService) *PlanHandler {
	return &PlanHandler{planSvc: planSvc}
}

// SetPlan 设置生产计划（按键覆盖）
// PUT /api/v1/plans
func (h *PlanHandler) SetPlan(c *gin.Context) {
	var req dto.SetPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	plan, err := h.planSvc.SetPlan(c.Request.Context(), &req, callerID)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, plan)
}

// ListPlans 查询某日生产计划
// GET /api/v1/plans?date=2026-03-15&shift=day&model=xxx
func (h *PlanHandler) ListPlans(c *gin.Context) {
	var req dto.PlanListRequest
	if !bindQuery(c, &req) {
		return
	}

	plans, err := h.planSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": plans})
}
