package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iceymoss/go-fpl/internal/core"
)

const metricsNamespace = "fpl_sync"

// Metrics 调度器的 prometheus 指标，nil 时所有方法都是空操作
type Metrics struct {
	cycleDuration *prometheus.HistogramVec
	taskRuns      *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	taskSkips     *prometheus.CounterVec
	lastSuccess   *prometheus.GaugeVec
}

// NewMetrics 创建并注册指标；reg 为 nil 时返回 nil
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full pass over all tiers.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		taskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "task_runs_total",
			Help:      "Sync task executions by outcome.",
		}, []string{"task", "tier", "outcome"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of a single sync task run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"task"}),
		taskSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "task_skips_total",
			Help:      "Sync tasks not executed in a cycle, by reason.",
		}, []string{"task", "reason"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "task_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run of each task.",
		}, []string{"task"}),
	}

	for _, c := range []prometheus.Collector{m.cycleDuration, m.taskRuns, m.taskDuration, m.taskSkips, m.lastSuccess} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCycle(res CycleResult) {
	if m == nil {
		return
	}
	outcome := "success"
	if !res.OK() {
		outcome = "failure"
	}
	m.cycleDuration.WithLabelValues(outcome).Observe(res.Duration().Seconds())
}

func (m *Metrics) observeTask(name string, tier core.Tier, took time.Duration, finished time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	} else {
		m.lastSuccess.WithLabelValues(name).Set(float64(finished.Unix()))
	}
	m.taskRuns.WithLabelValues(name, tier.String(), outcome).Inc()
	m.taskDuration.WithLabelValues(name).Observe(took.Seconds())
}

func (m *Metrics) observeSkip(skip Skip) {
	if m == nil {
		return
	}
	m.taskSkips.WithLabelValues(skip.Task, string(skip.Reason)).Inc()
}
