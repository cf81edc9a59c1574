package core

import (
	"sync"
	"time"
)

// Throttle 任务自己持有的节流状态：上次成功运行时间 + 最小间隔。
// 一写多读，用读写锁保护唯一的时间字段。
type Throttle struct {
	mu       sync.RWMutex
	lastRun  *time.Time
	interval time.Duration
}

func NewThrottle(interval time.Duration) *Throttle {
	if interval < 0 {
		interval = 0
	}
	return &Throttle{interval: interval}
}

// Decide 没有运行记录时总是可运行
func (t *Throttle) Decide(now time.Time) ThrottleDecision {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.lastRun == nil {
		return Runnable()
	}
	elapsed := now.Sub(*t.lastRun)
	if elapsed >= t.interval {
		return Runnable()
	}
	return NotYet(t.interval-elapsed, t.interval)
}

// Record 任务成功后记录运行时间
func (t *Throttle) Record(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRun = &at
}

// Restore 启动时从检查点恢复，只在比当前记录更新时生效
func (t *Throttle) Restore(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastRun == nil || at.After(*t.lastRun) {
		t.lastRun = &at
	}
}

// LastRun 返回上次成功时间，没有则 ok=false
func (t *Throttle) LastRun() (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastRun == nil {
		return time.Time{}, false
	}
	return *t.lastRun, true
}

func (t *Throttle) Interval() time.Duration {
	return t.interval
}
