package tasks

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 10
	MaxConcurrency     = 20
)

// ClampConcurrency 0 或负数用默认值，上限 MaxConcurrency
func ClampConcurrency(n int) int {
	switch {
	case n <= 0:
		return DefaultConcurrency
	case n > MaxConcurrency:
		return MaxConcurrency
	default:
		return n
	}
}

// FanOut 对 items 并发执行 fn，同时最多 limit 个。
// 第一个错误会取消其余调用并作为结果返回，fn 里的 panic 也按错误处理
func FanOut[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T) error) error {
	if len(items) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ClampConcurrency(limit))
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			// worker 跑在自己的 goroutine 上，Manager 的 recover 接不到
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return fn(gctx, item)
		})
	}
	return g.Wait()
}
