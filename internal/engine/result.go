package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iceymoss/go-fpl/internal/core"
)

// TierPolicy 上游层级失败时，下游层级怎么办
type TierPolicy int

const (
	// ContinueOnFailure 下游照常执行，依赖每个任务自己的节流实现最终一致
	ContinueOnFailure TierPolicy = iota
	// HaltOnFailure 某层出现失败后，本轮后续层级的任务全部跳过
	HaltOnFailure
)

func (p TierPolicy) String() string {
	switch p {
	case HaltOnFailure:
		return "halt"
	default:
		return "continue"
	}
}

func ParseTierPolicy(s string) (TierPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return ContinueOnFailure, nil
	case "halt":
		return HaltOnFailure, nil
	default:
		return ContinueOnFailure, fmt.Errorf("unknown tier policy %q", s)
	}
}

// SkipReason 任务本轮没有执行的原因
type SkipReason string

const (
	ReasonThrottled      SkipReason = "throttled"
	ReasonUpstreamFailed SkipReason = "upstream tier failed"
)

type Skip struct {
	Task      string        `json:"task"`
	Tier      core.Tier     `json:"tier"`
	Reason    SkipReason    `json:"reason"`
	Remaining time.Duration `json:"remaining,omitempty"`
}

// TaskError 一个任务本轮的失败
type TaskError struct {
	Task string
	Tier core.Tier
	Err  error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("%s: %v", e.Task, e.Err)
}

func (e TaskError) Unwrap() error {
	return e.Err
}

func (e TaskError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Task  string    `json:"task"`
		Tier  core.Tier `json:"tier"`
		Error string    `json:"error"`
	}{e.Task, e.Tier, msg})
}

// CycleResult 一轮调度的汇总，只用于日志和看板
type CycleResult struct {
	ID         string      `json:"id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Ran        []string    `json:"ran"`
	Skipped    []Skip      `json:"skipped"`
	Failures   []TaskError `json:"failures"`
}

func (r CycleResult) OK() bool {
	return len(r.Failures) == 0
}

func (r CycleResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Err 合并所有失败，没有失败时返回 nil
func (r CycleResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Failed 返回失败任务名
func (r CycleResult) Failed() []string {
	names := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		names = append(names, f.Task)
	}
	return names
}
