package tasks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/internal/core"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

// Registrar 调度器的注册入口
type Registrar interface {
	Register(task core.SyncTask) error
}

type restorer interface {
	Restore(ctx context.Context) error
}

// RegisterAll 恢复检查点后逐个注册。检查点读失败只告警，任务当作从未运行
func RegisterAll(ctx context.Context, reg Registrar, list []core.SyncTask) error {
	for _, task := range list {
		if r, ok := task.(restorer); ok {
			if err := r.Restore(ctx); err != nil {
				logger.Warn("⚠️ [AutoLoad] restore failed", zap.String("task", task.Name()), zap.Error(err))
			}
		}
		if err := reg.Register(task); err != nil {
			logger.Error("❌ [AutoLoad] failed to load", zap.String("task", task.Name()), zap.Error(err))
			return fmt.Errorf("register %s: %w", task.Name(), err)
		}
		logger.Info("✅ [AutoLoad] loaded", zap.String("task", task.Name()), zap.Stringer("tier", task.Tier()))
	}
	return nil
}
