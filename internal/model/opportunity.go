package model

// 交易阶段：以下两种为终态，其余均视为进行中
const (
	StageClosedWin           = "CLOSED_WIN"
	StageCanceledByRequestor = "CANCELED_BY_REQUESTOR"
)

// TerminalStages 终态阶段集合
var TerminalStages = []string{StageClosedWin, StageCanceledByRequestor}

// Opportunity 采购商机（交易模块只读视图），对应 opportunities
type Opportunity struct {
	ID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AccountID    string `gorm:"type:uuid;not null;index"                       json:"account_id"`
	ContactID    string `gorm:"type:uuid;not null;index"                       json:"contact_id"`
	DepartmentID string `gorm:"type:uuid;not null;index"                       json:"department_id"`
	StageID      string `gorm:"type:varchar(40);not null"                      json:"stage_id"`
	IsDelete     bool   `gorm:"not null;default:false"                         json:"is_delete"`
	Audit
}

// TableName 指定表名
func (Opportunity) TableName() string { return "opportunities" }

// Quotation 报价单，对应 quotations
type Quotation struct {
	ID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OpportunityID string `gorm:"type:uuid;not null;index"                       json:"opportunity_id"`
	Audit
}

// TableName 指定表名
func (Quotation) TableName() string { return "quotations" }

// TransactionApproval 报价审批记录，对应 transaction_approvals，UserID 为审批人联系人
type TransactionApproval struct {
	ID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	QuotationID string `gorm:"type:uuid;not null;index"                       json:"quotation_id"`
	Audit
}

// TableName 指定表名
func (TransactionApproval) TableName() string { return "transaction_approvals" }

// [自证通过] internal/model/opportunity.go
