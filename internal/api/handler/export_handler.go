package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"assembly-qc/internal/dto"
	"assembly-qc/internal/service"
	"assembly-qc/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ShiftReport 导出班次报表
// GET /api/v1/export/shift-report?date=2026-03-15&shift=day&model=xxx
func (h *ExportHandler) ShiftReport(c *gin.Context) {
	var req dto.DashboardRequest
	if !bindQuery(c, &req) {
		return
	}

	file, err := h.exportSvc.ExportShiftReport(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	if file.ArchiveKey != "" {
		c.Header("X-Archive-Key", file.ArchiveKey)
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// PlanCalendar 导出生产计划日历
// GET /api/v1/export/plan-calendar?start=2026-03-01&end=2026-03-31
func (h *ExportHandler) PlanCalendar(c *gin.Context) {
	var req dto.PlanCalendarRequest
	if !bindQuery(c, &req) {
		return
	}

	file, err := h.exportSvc.ExportPlanCalendar(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrExportGenerateFail) {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}
	handleDashboardError(c, err)
}
