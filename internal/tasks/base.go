package tasks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/iceymoss/go-fpl/internal/checkpoint"
	"github.com/iceymoss/go-fpl/internal/core"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

// Base 同步任务的公共部分：名称、层级、节流状态、检查点。
// 具体任务嵌入 *Base 后只需实现 Run
type Base struct {
	name       string
	tier       core.Tier
	throttle   *core.Throttle
	clock      clock.PassiveClock
	checkpoint checkpoint.Store
}

// NewBase c 为 nil 时用真实时钟，cp 为 nil 时不持久化运行时间
func NewBase(name string, tier core.Tier, interval time.Duration, c clock.PassiveClock, cp checkpoint.Store) *Base {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Base{
		name:       name,
		tier:       tier,
		throttle:   core.NewThrottle(interval),
		clock:      c,
		checkpoint: cp,
	}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Tier() core.Tier {
	return b.tier
}

func (b *Base) Interval() time.Duration {
	return b.throttle.Interval()
}

func (b *Base) Clock() clock.PassiveClock {
	return b.clock
}

func (b *Base) ShouldRun(now time.Time) core.ThrottleDecision {
	return b.throttle.Decide(now)
}

// LastRun 上次成功时间
func (b *Base) LastRun() (time.Time, bool) {
	return b.throttle.LastRun()
}

// Complete 只在 Run 全部成功后调用。检查点写失败只告警，本进程内的节流照常生效
func (b *Base) Complete(ctx context.Context) {
	at := b.clock.Now()
	b.throttle.Record(at)
	if b.checkpoint == nil {
		return
	}
	if err := b.checkpoint.Save(ctx, b.name, at); err != nil {
		logger.Warn("⚠️ [Task] save checkpoint failed", zap.String("task", b.name), zap.Error(err))
	}
}

// Restore 从检查点恢复上次运行时间
func (b *Base) Restore(ctx context.Context) error {
	if b.checkpoint == nil {
		return nil
	}
	at, ok, err := b.checkpoint.Load(ctx, b.name)
	if err != nil {
		return fmt.Errorf("restore %s: %w", b.name, err)
	}
	if ok {
		b.throttle.Restore(at)
		logger.Info("♻️ [Task] last run restored", zap.String("task", b.name), zap.Time("last_run", at))
	}
	return nil
}
