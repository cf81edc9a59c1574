package core

import (
	"context"
	"fmt"
	"time"
)

// SyncTask 同步任务接口：一个任务负责从远端 API 拉取一种资源并 upsert 到存储
type SyncTask interface {
	// Name 任务唯一标识 (用于日志)
	Name() string

	// Tier 任务所在层级，构造时确定，之后不变
	Tier() Tier

	// ShouldRun 根据当前时间和上次成功时间判断本轮是否需要执行
	ShouldRun(now time.Time) ThrottleDecision

	// Run 执行一次 拉取 -> 转换 -> 写库，成功后任务自己记录上次运行时间
	Run(ctx context.Context) error
}

// ThrottleDecision 节流判断结果，每次 tick 现算，不持久化
type ThrottleDecision struct {
	Runnable bool
	// Remaining 距离下次可运行还需等待的时间，Runnable 时为 0
	Remaining time.Duration
	// Interval 任务配置的最小间隔
	Interval time.Duration
}

// Runnable 可以运行
func Runnable() ThrottleDecision {
	return ThrottleDecision{Runnable: true}
}

// NotYet 还没到时间
func NotYet(remaining, interval time.Duration) ThrottleDecision {
	return ThrottleDecision{Remaining: remaining, Interval: interval}
}

func (d ThrottleDecision) String() string {
	if d.Runnable {
		return "runnable"
	}
	return fmt.Sprintf("not yet (%s of %s remaining)", d.Remaining.Round(time.Millisecond), d.Interval)
}
