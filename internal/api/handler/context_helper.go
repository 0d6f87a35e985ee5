package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"assembly-qc/internal/api/middleware"
	"assembly-qc/internal/dto"
	apperrors "assembly-qc/pkg/errors"
	"assembly-qc/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	return s, true
}

// MustGetOperator 提取当前作业员身份（ID + 姓名）
func MustGetOperator(c *gin.Context) (dto.Operator, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return dto.Operator{}, false
	}
	name := c.GetString(middleware.CtxFullName)
	if name == "" {
		name = c.GetString(middleware.CtxUsername)
	}
	return dto.Operator{ID: id, Name: name}, true
}

// tokenInfo 当前 Token 的 jti 与过期时间，用于注销
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.CtxTokenJTI)
	exp := c.GetTime(middleware.CtxTokenExp)
	return jti, exp
}

// bindJSON 绑定请求体，失败时写入 400 / 413 并返回 false
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "请求体过大")
			return false
		}
		response.BadRequest(c, response.CodeValidation, "参数校验失败")
		return false
	}
	return true
}

// bindQuery 绑定查询参数，失败时写入 400 并返回 false
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.BadRequest(c, response.CodeValidation, "参数校验失败")
		return false
	}
	return true
}

// 通用错误码
const (
	codeInvalidDate = 10006
	codeNotFound    = 10007
	codeStore       = 50001
)

// handleCommonError 按错误分类写入响应
//   - ErrInvalidDate / ErrValidation → 400，附带具体原因
//   - ErrNotFound → 404
//   - ErrStore 及其他 → 500，不暴露底层细节
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidDate):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeInvalidDate, "日期格式应为 YYYY-MM-DD", err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "参数校验失败", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, codeNotFound, "记录不存在", err.Error())
	case errors.Is(err, apperrors.ErrStore):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, codeStore, "数据服务暂不可用")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
