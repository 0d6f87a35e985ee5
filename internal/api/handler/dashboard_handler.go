package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"assembly-qc/internal/dto"
	"assembly-qc/internal/service"
	"assembly-qc/pkg/response"
)

// DashboardHandler 班次看板 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
	reworkSvc    service.ReworkService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService, reworkSvc service.ReworkService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc, reworkSvc: reworkSvc}
}

// GetDashboard 班次看板
// GET /api/v1/dashboard?date=2026-03-15&shift=day&model=xxx
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	var req dto.DashboardRequest
	if !bindQuery(c, &req) {
		return
	}

	board, err := h.dashboardSvc.GetDashboard(c.Request.Context(), &req)
	if err != nil {
		handleDashboardError(c, err)
		return
	}

	response.OK(c, board)
}

// ListWindowRework 班次窗口内的待复检记录
// GET /api/v1/dashboard/rework?date=2026-03-15&shift=day&model=xxx
func (h *DashboardHandler) ListWindowRework(c *gin.Context) {
	var req dto.DashboardRequest
	if !bindQuery(c, &req) {
		return
	}

	list, err := h.reworkSvc.ListInWindow(c.Request.Context(), &req)
	if err != nil {
		handleDashboardError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

func handleDashboardError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrAggregationFailed) {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, 40001, "看板数据聚合失败")
		return
	}
	handleCommonError(c, err)
}
