// Package checkpoint 保存每个任务上次成功运行的时间，重启后恢复节流状态
package checkpoint

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix redis key 前缀
const KeyPrefix = "fpl:last_run:"

type Store interface {
	Load(ctx context.Context, task string) (time.Time, bool, error)
	Save(ctx context.Context, task string, at time.Time) error
}

// Key 任务对应的 redis key
func Key(task string) string {
	return KeyPrefix + task
}

// Redis 以毫秒时间戳保存，ttl 为 0 时不过期
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context, task string) (time.Time, bool, error) {
	val, err := r.rdb.Get(ctx, Key(task)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}

func (r *Redis) Save(ctx context.Context, task string, at time.Time) error {
	return r.rdb.Set(ctx, Key(task), strconv.FormatInt(at.UnixMilli(), 10), r.ttl).Err()
}

// Memory 进程内实现，没有 redis 时使用
type Memory struct {
	mu   sync.RWMutex
	runs map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{runs: make(map[string]time.Time)}
}

func (m *Memory) Load(_ context.Context, task string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.runs[task]
	return at, ok, nil
}

func (m *Memory) Save(_ context.Context, task string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[task] = at
	return nil
}
