package objects

import "time"

const (
	JobRunning = 0
	JobSuccess = 1
	JobFailed  = 2
)

// SysJobLog 对应 sys_job_logs 表，每次任务执行一行
type SysJobLog struct {
	ID         uint   `gorm:"primarykey"`
	JobName    string `gorm:"index;size:128"`
	Tier       string `gorm:"size:16"`
	Status     int    // 0 Running, 1 Success, 2 Failed
	ErrorMsg   string `gorm:"type:text"`
	DurationMs int64
	StartTime  time.Time `gorm:"index"`
	EndTime    *time.Time
}

func (s SysJobLog) TableName() string {
	return "sys_job_logs"
}
