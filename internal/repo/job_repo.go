package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/iceymoss/go-fpl/internal/core"
	"github.com/iceymoss/go-fpl/pkg/db/objects"
)

// JobRepo 任务执行记录，写 sys_job_logs
type JobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) *JobRepo { return &JobRepo{db: db} }

// Start 开始记录日志，返回日志 ID
func (r *JobRepo) Start(ctx context.Context, task string, tier core.Tier, at time.Time) (uint, error) {
	log := &objects.SysJobLog{
		JobName:   task,
		Tier:      tier.String(),
		Status:    objects.JobRunning,
		StartTime: at,
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return 0, err
	}
	return log.ID, nil
}

// Finish 任务结束更新日志
func (r *JobRepo) Finish(ctx context.Context, id uint, at time.Time, took time.Duration, runErr error) error {
	updates := map[string]any{
		"status":      objects.JobSuccess,
		"end_time":    at,
		"duration_ms": took.Milliseconds(),
		"error_msg":   "",
	}
	if runErr != nil {
		updates["status"] = objects.JobFailed
		updates["error_msg"] = runErr.Error()
	}
	return r.db.WithContext(ctx).Model(&objects.SysJobLog{}).Where("id = ?", id).Updates(updates).Error
}

// Recent 某个任务最近的执行记录，task 为空时返回所有任务
func (r *JobRepo) Recent(ctx context.Context, task string, limit int) ([]objects.SysJobLog, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if task != "" {
		q = q.Where("job_name = ?", task)
	}
	var list []objects.SysJobLog
	err := q.Find(&list).Error
	return list, err
}

// Prune 删除早于 before 的记录
func (r *JobRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("start_time < ?", before).Delete(&objects.SysJobLog{})
	return res.RowsAffected, res.Error
}
