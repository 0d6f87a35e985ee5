package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"assembly-qc/internal/dto"
	"assembly-qc/internal/service"
	"assembly-qc/pkg/response"
)

// QCHandler 检验记录模块 HTTP 处理器
type QCHandler struct {
	inspectionSvc service.InspectionService
}

// NewQCHandler 创建 QCHandler
func NewQCHandler(inspectionSvc service.InspectionService) *QCHandler {
	return &QCHandler{inspectionSvc: inspectionSvc}
}

// Log 提交单件检验结果
// POST /api/v1/qc/logs
func (h *QCHandler) Log(c *gin.Context) {
	var req dto.LogQCRequest
	if !bindJSON(c, &req) {
		return
	}

	operator, ok := MustGetOperator(c)
	if !ok {
		return
	}

	event, err := h.inspectionSvc.Log(c.Request.Context(), &req, operator)
	if err != nil {
		h.handleQCError(c, err)
		return
	}

	response.Created(c, event)
}

// UndoLast 撤销本人今日最近一条记录
// DELETE /api/v1/qc/logs/last
func (h *QCHandler) UndoLast(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.inspectionSvc.UndoLast(c.Request.Context(), operatorID)
	if err != nil {
		h.handleQCError(c, err)
		return
	}

	response.OK(c, event)
}

// ResetToday 清空本人今日全部记录
// DELETE /api/v1/qc/logs/today
func (h *QCHandler) ResetToday(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.inspectionSvc.ResetToday(c.Request.Context(), operatorID)
	if err != nil {
		h.handleQCError(c, err)
		return
	}

	response.OK(c, result)
}

// Stats 本人今日统计
// GET /api/v1/qc/stats?model=xxx
func (h *QCHandler) Stats(c *gin.Context) {
	var req dto.OperatorStatsRequest
	if !bindQuery(c, &req) {
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	h.writeStats(c, operatorID, &req)
}

// OperatorStats 查看指定作业员当日统计（检验员 / 管理员）
// GET /api/v1/qc/stats/:operator_id?model=xxx
func (h *QCHandler) OperatorStats(c *gin.Context) {
	var req dto.OperatorStatsRequest
	if !bindQuery(c, &req) {
		return
	}

	operatorID := c.Param("operator_id")
	if _, err := uuid.Parse(operatorID); err != nil {
		response.BadRequest(c, 20005, "作业员 ID 格式错误")
		return
	}

	h.writeStats(c, operatorID, &req)
}

func (h *QCHandler) writeStats(c *gin.Context, operatorID string, req *dto.OperatorStatsRequest) {
	stats, err := h.inspectionSvc.StatsFor(c.Request.Context(), operatorID, req)
	if err != nil {
		h.handleQCError(c, err)
		return
	}

	response.OK(c, stats)
}

func (h *QCHandler) handleQCError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDefectRequired):
		response.BadRequest(c, 20001, "NG 记录必须填写不良项")
	case errors.Is(err, service.ErrInvalidSide):
		response.BadRequest(c, 20002, "左右侧仅支持 L 或 R")
	case errors.Is(err, service.ErrNothingToUndo):
		response.Error(c, http.StatusNotFound, 20003, "今日暂无可撤销的记录")
	case errors.Is(err, service.ErrAggregationFailed):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, 20004, "统计数据聚合失败")
	default:
		handleCommonError(c, err)
	}
}
