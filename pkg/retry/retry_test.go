package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr struct{ code int }

func (e statusErr) Error() string     { return fmt.Sprintf("status %d", e.code) }
func (e statusErr) RateLimited() bool { return e.code == 429 }

func fastPolicy(maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, BaseDelay: 20 * time.Millisecond}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrRateLimited, true},
		{"wrapped sentinel", fmt.Errorf("get fixtures: %w", ErrRateLimited), true},
		{"typed 429", statusErr{429}, true},
		{"wrapped typed 429", fmt.Errorf("call: %w", statusErr{429}), true},
		{"typed 500", statusErr{500}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestDelayAndBound(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 500*time.Millisecond, Delay(p, 0))
	assert.Equal(t, time.Second, Delay(p, 1))
	assert.Equal(t, 8*time.Second, Delay(p, 4))
	// 500ms * (1+2+4+8+16)
	assert.Equal(t, 15500*time.Millisecond, MaxTotalWait(p))
	assert.Equal(t, time.Duration(0), MaxTotalWait(Policy{MaxRetries: 0}))
}

func TestDoSucceedsAfterRateLimits(t *testing.T) {
	const failures = 3
	p := fastPolicy(5)

	calls := 0
	start := time.Now()
	got, err := Do(context.Background(), p, func() (string, error) {
		calls++
		if calls <= failures {
			return "", statusErr{429}
		}
		return "ok", nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, failures+1, calls)

	var want time.Duration
	for i := 0; i < failures; i++ {
		want += Delay(p, i)
	}
	assert.GreaterOrEqual(t, elapsed, want)
	assert.Less(t, elapsed, want+150*time.Millisecond)
}

func TestDoNonRetryableReturnsImmediately(t *testing.T) {
	boom := errors.New("parse failure")
	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), fastPolicy(5), func() (int, error) {
		calls++
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(2), func() error {
		calls++
		return fmt.Errorf("attempt %d: %w", calls, ErrRateLimited)
	})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "attempt 3")
}

func TestDoZeroRetries(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(0), func() error {
		calls++
		return ErrRateLimited
	})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls)
}

func TestDoCustomClassifier(t *testing.T) {
	transient := errors.New("transient")
	p := fastPolicy(3)
	p.Retryable = func(err error) bool { return errors.Is(err, transient) }

	calls := 0
	err := Run(context.Background(), p, func() error {
		calls++
		if calls == 1 {
			return transient
		}
		return ErrRateLimited
	})
	// 自定义分类器下限流错误不再重试
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 2, calls)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxRetries: 5, BaseDelay: time.Second}

	calls := 0
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := Run(ctx, p, func() error {
		calls++
		return ErrRateLimited
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
