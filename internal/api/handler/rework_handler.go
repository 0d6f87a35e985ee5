package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"assembly-qc/internal/api/middleware"
	"assembly-qc/internal/dto"
	"assembly-qc/internal/service"
	"assembly-qc/pkg/response"
)

// ReworkHandler 返工模块 HTTP 处理器
type ReworkHandler struct {
	reworkSvc service.ReworkService
}

// NewReworkHandler 创建 ReworkHandler
func NewReworkHandler(reworkSvc service.ReworkService) *ReworkHandler {
	return &ReworkHandler{reworkSvc: reworkSvc}
}

// ListPending 全部待复检记录
// GET /api/v1/rework
func (h *ReworkHandler) ListPending(c *gin.Context) {
	list, err := h.reworkSvc.ListPending(c.Request.Context())
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// History 返工历史
// GET /api/v1/rework/history?start=2026-03-01&end=2026-03-15
func (h *ReworkHandler) History(c *gin.Context) {
	var req dto.ReworkHistoryRequest
	if !bindQuery(c, &req) {
		return
	}

	list, err := h.reworkSvc.History(c.Request.Context(), &req)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Update 提交复检结果
// PUT /api/v1/rework/:id
func (h *ReworkHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, response.CodeValidation, "记录ID不能为空")
		return
	}

	var req dto.UpdateReworkRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, ok := MustGetUserID(c); !ok {
		return
	}
	inspector := c.GetString(middleware.CtxFullName)

	event, err := h.reworkSvc.Update(c.Request.Context(), id, &req, inspector)
	if err != nil {
		if errors.Is(err, service.ErrReworkNotPending) {
			response.Conflict(c, 40101, "该记录不处于返工状态")
			return
		}
		handleCommonError(c, err)
		return
	}

	response.OK(c, event)
}
