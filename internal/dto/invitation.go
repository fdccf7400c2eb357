package dto

// ── 邮件邀请 DTO ──

// ContactInvitationRequest 按邮箱邀请联系人加入部门
type ContactInvitationRequest struct {
	AccountID string   `json:"accountId"`
	Email     []string `json:"email"`
}

// InvitationResult 单个邮箱的处理结果
type InvitationResult struct {
	Email   string `json:"email"`
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// DepartmentInvitation 批量邀请中单个部门的邮箱列表
type DepartmentInvitation struct {
	DepartmentID string   `json:"departmentId"`
	Email        []string `json:"email"`
}

// DepartmentInvitationResult 批量邀请中单个部门的处理结果
type DepartmentInvitationResult struct {
	Status         bool    `json:"status"`
	DepartmentName *string `json:"departmentName"`
	Message        string  `json:"message"`
}

// [自证通过] internal/dto/invitation.go
