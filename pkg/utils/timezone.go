package utils

import (
	"sync"
	"time"
)

// TimeLayout 看板和日志里统一的时间格式
const TimeLayout = "2006-01-02 15:04:05"

// DefaultLocation FPL 的截止时间、开球时间都按英国时间展示
const DefaultLocation = "Europe/London"

var (
	location   = loadLocation(DefaultLocation)
	locationMu sync.RWMutex
)

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// 加载失败（比如容器里没有 tzdata），退回 UTC
		return time.UTC
	}
	return loc
}

// SetLocation 按名称切换展示时区
func SetLocation(name string) {
	if name == "" {
		return
	}
	loc := loadLocation(name)
	locationMu.Lock()
	location = loc
	locationMu.Unlock()
}

// Location 当前展示时区
func Location() *time.Location {
	locationMu.RLock()
	defer locationMu.RUnlock()
	return location
}

// FormatTime 转到展示时区并格式化，零值返回空串
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(Location()).Format(TimeLayout)
}

// UnixToLocal 将Unix时间戳转换为展示时区的时间
func UnixToLocal(sec int64) time.Time {
	return time.Unix(sec, 0).In(Location())
}
