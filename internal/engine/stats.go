package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/iceymoss/go-fpl/internal/core"
	"github.com/iceymoss/go-fpl/pkg/utils"
)

const (
	StatusIdle    = "Idle"
	StatusRunning = "Running"
	StatusError   = "Error"
	StatusSkipped = "Skipped"
)

// TaskStats 任务运行时状态
type TaskStats struct {
	Name        string    `json:"name"`
	Tier        core.Tier `json:"tier"`
	Status      string    `json:"status"`       // Idle, Running, Error, Skipped
	LastRunTime string    `json:"last_run"`     // 格式化后的时间
	LastSuccess string    `json:"last_success"` // 上次成功时间
	LastResult  string    `json:"last_result"`  // 成功或错误信息
	LastSkip    string    `json:"last_skip"`    // 上次跳过原因
	RunCount    int64     `json:"run_count"`
	FailCount   int64     `json:"fail_count"`
	DurationMs  int64     `json:"duration_ms"`
}

type StatManager struct {
	stats   map[string]*TaskStats
	history []CycleResult
	limit   int
	mu      sync.RWMutex
}

func NewStatManager(historySize int) *StatManager {
	if historySize <= 0 {
		historySize = 20
	}
	return &StatManager{
		stats: make(map[string]*TaskStats),
		limit: historySize,
	}
}

func (m *StatManager) register(name string, tier core.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[name] = &TaskStats{
		Name:       name,
		Tier:       tier,
		Status:     StatusIdle,
		LastResult: "Pending",
	}
}

// update 在锁内修改，避免调用方拿着指针并发写
func (m *StatManager) update(name string, fn func(s *TaskStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stats[name]; ok {
		fn(s)
	}
}

func (m *StatManager) markRunning(name string, at time.Time) {
	m.update(name, func(s *TaskStats) {
		s.Status = StatusRunning
		s.LastRunTime = utils.FormatTime(at)
		s.RunCount++
	})
}

func (m *StatManager) markFinished(name string, at time.Time, took time.Duration, err error) {
	m.update(name, func(s *TaskStats) {
		s.DurationMs = took.Milliseconds()
		if err != nil {
			s.Status = StatusError
			s.LastResult = "Error: " + err.Error()
			s.FailCount++
			return
		}
		s.Status = StatusIdle
		s.LastResult = "Success"
		s.LastSuccess = utils.FormatTime(at)
	})
}

func (m *StatManager) markSkipped(skip Skip) {
	m.update(skip.Task, func(s *TaskStats) {
		// 失败状态保留到下一次真正执行，避免被节流跳过覆盖
		if s.Status != StatusError {
			s.Status = StatusSkipped
		}
		s.LastSkip = string(skip.Reason)
		if skip.Remaining > 0 {
			s.LastSkip += " (" + skip.Remaining.Round(time.Second).String() + ")"
		}
	})
}

func (m *StatManager) addCycle(res CycleResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, res)
	if len(m.history) > m.limit {
		m.history = m.history[len(m.history)-m.limit:]
	}
}

func (m *StatManager) Get(name string) (TaskStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stats[name]
	if !ok {
		return TaskStats{}, false
	}
	return *s, true
}

// GetAll 按层级、名称排序返回副本
func (m *StatManager) GetAll() []TaskStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]TaskStats, 0, len(m.stats))
	for _, s := range m.stats {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Tier != list[j].Tier {
			return list[i].Tier < list[j].Tier
		}
		return list[i].Name < list[j].Name
	})
	return list
}

// History 最近的若干轮结果，最新的在前
func (m *StatManager) History() []CycleResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CycleResult, len(m.history))
	for i, res := range m.history {
		out[len(m.history)-1-i] = res
	}
	return out
}

// Last 最近一轮结果
func (m *StatManager) Last() (CycleResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.history) == 0 {
		return CycleResult{}, false
	}
	return m.history[len(m.history)-1], true
}
