package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/iceymoss/go-fpl/internal/core"
	"github.com/iceymoss/go-fpl/pkg/logger"
)

// DefaultSchedule 默认每 10 秒一轮
const DefaultSchedule = "@every 10s"

var (
	ErrNilTask       = errors.New("engine: nil task")
	ErrInvalidTier   = errors.New("engine: invalid tier")
	ErrDuplicateTask = errors.New("engine: duplicate task name")
)

// RunLog 持久化每次任务执行记录，失败只打日志不影响调度
type RunLog interface {
	Start(ctx context.Context, task string, tier core.Tier, at time.Time) (uint, error)
	Finish(ctx context.Context, id uint, at time.Time, took time.Duration, runErr error) error
}

type Option func(*Manager)

func WithClock(c clock.PassiveClock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithSchedule(spec string) Option {
	return func(m *Manager) {
		if spec != "" {
			m.schedule = spec
		}
	}
}

func WithTierPolicy(p TierPolicy) Option {
	return func(m *Manager) { m.policy = p }
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

func WithRunLog(l RunLog) Option {
	return func(m *Manager) { m.runLog = l }
}

func WithHistorySize(n int) Option {
	return func(m *Manager) { m.Stats = NewStatManager(n) }
}

// WithTaskTimeout 单个任务一次执行的上限，0 表示不限制
func WithTaskTimeout(d time.Duration) Option {
	return func(m *Manager) { m.taskTimeout = d }
}

// Manager 分层调度器：层与层之间严格串行，同层任务并发
type Manager struct {
	regMu sync.RWMutex
	tiers map[core.Tier][]core.SyncTask
	names map[string]struct{}

	// 同一时刻只跑一轮
	cycleMu sync.Mutex

	clock       clock.PassiveClock
	schedule    string
	policy      TierPolicy
	taskTimeout time.Duration
	metrics     *Metrics
	runLog      RunLog
	trigger     chan struct{}

	Stats *StatManager
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		tiers:    make(map[core.Tier][]core.SyncTask),
		names:    make(map[string]struct{}),
		clock:    clock.RealClock{},
		schedule: DefaultSchedule,
		policy:   ContinueOnFailure,
		trigger:  make(chan struct{}, 1),
		Stats:    NewStatManager(0),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register 把任务放进它声明的层级，同层内顺序无意义
func (m *Manager) Register(task core.SyncTask) error {
	if task == nil {
		return ErrNilTask
	}
	tier := task.Tier()
	if !tier.Valid() {
		return fmt.Errorf("%w: %s has %s", ErrInvalidTier, task.Name(), tier)
	}

	m.regMu.Lock()
	defer m.regMu.Unlock()
	if _, ok := m.names[task.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name())
	}
	m.names[task.Name()] = struct{}{}
	m.tiers[tier] = append(m.tiers[tier], task)
	m.Stats.register(task.Name(), tier)

	logger.Info("📝 [Manager] task registered", zap.String("task", task.Name()), zap.Stringer("tier", tier))
	return nil
}

// Tasks 按层级顺序返回已注册的任务
func (m *Manager) Tasks() []core.SyncTask {
	m.regMu.RLock()
	defer m.regMu.RUnlock()
	var out []core.SyncTask
	for _, tier := range core.Tiers() {
		out = append(out, m.tiers[tier]...)
	}
	return out
}

func (m *Manager) Policy() TierPolicy {
	return m.policy
}

func (m *Manager) snapshot(tier core.Tier) []core.SyncTask {
	m.regMu.RLock()
	defer m.regMu.RUnlock()
	return append([]core.SyncTask(nil), m.tiers[tier]...)
}

// RunCycle 执行一轮：逐层判断、同层并发、层间屏障，最后汇总
func (m *Manager) RunCycle(ctx context.Context) CycleResult {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	res := CycleResult{
		ID:        uuid.NewString(),
		StartedAt: m.clock.Now(),
		Ran:       []string{},
		Skipped:   []Skip{},
		Failures:  []TaskError{},
	}
	log := logger.With(zap.String("cycle", res.ID))
	log.Debug("🔁 [Manager] cycle started")

	halted := false
	for _, tier := range core.Tiers() {
		tasks := m.snapshot(tier)
		if len(tasks) == 0 {
			continue
		}

		if halted {
			for _, t := range tasks {
				skip := Skip{Task: t.Name(), Tier: tier, Reason: ReasonUpstreamFailed}
				m.recordSkip(&res, skip)
				log.Info("⏭️ [Manager] task skipped", zap.String("task", t.Name()), zap.String("reason", string(skip.Reason)))
			}
			continue
		}

		runnable := make([]core.SyncTask, 0, len(tasks))
		now := m.clock.Now()
		for _, t := range tasks {
			decision := t.ShouldRun(now)
			if !decision.Runnable {
				m.recordSkip(&res, Skip{Task: t.Name(), Tier: tier, Reason: ReasonThrottled, Remaining: decision.Remaining})
				log.Info("⏳ [Manager] not yet",
					zap.String("task", t.Name()),
					zap.Duration("remaining", decision.Remaining),
					zap.Duration("interval", decision.Interval))
				continue
			}
			runnable = append(runnable, t)
		}

		failures := m.runTier(ctx, log, runnable)
		for _, t := range runnable {
			res.Ran = append(res.Ran, t.Name())
		}
		res.Failures = append(res.Failures, failures...)

		if len(failures) > 0 && m.policy == HaltOnFailure {
			halted = true
		}
	}

	res.FinishedAt = m.clock.Now()
	m.Stats.addCycle(res)
	m.metrics.observeCycle(res)

	if res.OK() {
		log.Info("✅ [Manager] cycle finished",
			zap.Strings("ran", res.Ran),
			zap.Int("skipped", len(res.Skipped)),
			zap.Duration("took", res.Duration()))
	} else {
		log.Warn("❌ [Manager] cycle finished with failures",
			zap.Strings("ran", res.Ran),
			zap.Strings("failed", res.Failed()),
			zap.Int("skipped", len(res.Skipped)),
			zap.Duration("took", res.Duration()),
			zap.Error(res.Err()))
	}
	return res
}

func (m *Manager) recordSkip(res *CycleResult, skip Skip) {
	res.Skipped = append(res.Skipped, skip)
	m.Stats.markSkipped(skip)
	m.metrics.observeSkip(skip)
}

// runTier 同层任务全部并发执行并等待结束，单个失败不取消兄弟任务
func (m *Manager) runTier(ctx context.Context, log *zap.Logger, tasks []core.SyncTask) []TaskError {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []TaskError
	)
	for _, t := range tasks {
		wg.Add(1)
		go func(t core.SyncTask) {
			defer wg.Done()
			if err := m.runTask(ctx, log, t); err != nil {
				mu.Lock()
				failures = append(failures, TaskError{Task: t.Name(), Tier: t.Tier(), Err: err})
				mu.Unlock()
			}
		}(t)
	}
	wg.Wait()

	// 完成顺序不确定，按名称排序让汇总稳定
	sort.Slice(failures, func(i, j int) bool { return failures[i].Task < failures[j].Task })
	return failures
}

func (m *Manager) runTask(ctx context.Context, log *zap.Logger, t core.SyncTask) (err error) {
	name := t.Name()
	started := m.clock.Now()
	m.Stats.markRunning(name, started)

	var logID uint
	if m.runLog != nil {
		id, lerr := m.runLog.Start(ctx, name, t.Tier(), started)
		if lerr != nil {
			log.Warn("⚠️ [Manager] run log start failed", zap.String("task", name), zap.Error(lerr))
		}
		logID = id
	}

	log.Info("🚀 [Manager] task started", zap.String("task", name), zap.Stringer("tier", t.Tier()))

	runCtx := ctx
	if m.taskTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Error("💥 [Manager] task panicked", zap.String("task", name), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}

		finished := m.clock.Now()
		took := finished.Sub(started)
		m.Stats.markFinished(name, finished, took, err)
		m.metrics.observeTask(name, t.Tier(), took, finished, err)
		if m.runLog != nil && logID != 0 {
			if lerr := m.runLog.Finish(context.WithoutCancel(ctx), logID, finished, took, err); lerr != nil {
				log.Warn("⚠️ [Manager] run log finish failed", zap.String("task", name), zap.Error(lerr))
			}
		}

		if err != nil {
			log.Error("❌ [Manager] task failed", zap.String("task", name), zap.Duration("took", took), zap.Error(err))
			return
		}
		log.Info("✅ [Manager] task finished", zap.String("task", name), zap.Duration("took", took))
	}()

	return t.Run(runCtx)
}

// Trigger 请求立即跑一轮，已有待处理的请求时合并
func (m *Manager) Trigger() bool {
	select {
	case m.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run 阻塞运行：先立即跑一轮，然后按 cron 周期驱动，直到 ctx 取消
func (m *Manager) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(logger.CronLogger()),
		cron.WithChain(
			cron.Recover(logger.CronLogger()),
			cron.SkipIfStillRunning(logger.CronLogger()),
		),
	)
	if _, err := c.AddFunc(m.schedule, func() { m.RunCycle(ctx) }); err != nil {
		return fmt.Errorf("engine: bad schedule %q: %w", m.schedule, err)
	}

	logger.Info("⏰ [Manager] scheduler started",
		zap.String("schedule", m.schedule),
		zap.Stringer("policy", m.policy),
		zap.Int("tasks", len(m.Tasks())))

	m.RunCycle(ctx)
	c.Start()

	for {
		select {
		case <-ctx.Done():
			stopped := c.Stop()
			<-stopped.Done()
			logger.Info("🛑 [Manager] scheduler stopped")
			return nil
		case <-m.trigger:
			logger.Info("👆 [Manager] manual trigger")
			m.RunCycle(ctx)
		}
	}
}
