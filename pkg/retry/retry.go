// Package retry 对共享、限流的上游调用做有界指数退避重试。
//
// 只有被分类为可重试（默认：限流 429）的错误才会重试，其它错误立即返回。
// 第 n 次重试前等待 BaseDelay * 2^n，最多重试 MaxRetries 次。
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/iceymoss/go-fpl/pkg/logger"
)

const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 500 * time.Millisecond
)

// ErrRateLimited 通用限流哨兵错误，调用方可以直接 wrap 它
var ErrRateLimited = errors.New("rate limited")

// rateLimiter 由协作方的错误类型实现（例如 fpl.APIError），避免包之间互相依赖
type rateLimiter interface {
	RateLimited() bool
}

// IsRateLimited 判断错误链上是否存在限流信号
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var rl rateLimiter
	return errors.As(err, &rl) && rl.RateLimited()
}

// Policy 重试策略
type Policy struct {
	// MaxRetries 最大重试次数（不含第一次调用）
	MaxRetries int
	// BaseDelay 第一次重试前的等待
	BaseDelay time.Duration
	// Retryable 错误分类器，nil 时使用 IsRateLimited
	Retryable func(error) bool
	// Name 仅用于日志
	Name string
}

// DefaultPolicy 5 次重试，500ms 起步，只重试限流错误
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Retryable:  IsRateLimited,
	}
}

func (p Policy) normalize() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Retryable == nil {
		p.Retryable = IsRateLimited
	}
	return p
}

// Delay 第 attempt 次重试前的等待时间（attempt 从 0 开始）
func Delay(p Policy, attempt int) time.Duration {
	p = p.normalize()
	if attempt < 0 {
		attempt = 0
	}
	return p.BaseDelay * time.Duration(int64(1)<<uint(attempt))
}

// MaxTotalWait 所有重试都用完时累计的等待上限
func MaxTotalWait(p Policy) time.Duration {
	p = p.normalize()
	var total time.Duration
	for i := 0; i < p.MaxRetries; i++ {
		total += Delay(p, i)
	}
	return total
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = Delay(p, p.MaxRetries)
	return b
}

// Do 执行 op，限流错误按策略退避重试。op 必须可以安全重复调用。
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	p = p.normalize()

	attempt := 0
	operation := func() (T, error) {
		res, err := op()
		if err != nil && !p.Retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("rate limited, backing off",
				zap.String("call", p.Name),
				zap.Int("attempt", attempt),
				zap.Duration("delay", next),
				zap.Error(err))
			attempt++
		}),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return res, err
	}
	return res, nil
}

// Run 没有返回值的版本
func Run(ctx context.Context, p Policy, op func() error) error {
	_, err := Do(ctx, p, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
