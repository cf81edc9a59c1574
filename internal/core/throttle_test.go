package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleFirstRunAlwaysRunnable(t *testing.T) {
	th := NewThrottle(time.Hour)
	for _, now := range []time.Time{{}, time.Unix(0, 0), time.Now(), time.Now().Add(100 * 365 * 24 * time.Hour)} {
		assert.True(t, th.Decide(now).Runnable)
	}
	_, ok := th.LastRun()
	assert.False(t, ok)
}

func TestThrottleBoundary(t *testing.T) {
	const interval = 5 * time.Minute
	base := time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC)

	th := NewThrottle(interval)
	th.Record(base)

	d := th.Decide(base.Add(interval - time.Second))
	require.False(t, d.Runnable)
	assert.Equal(t, time.Second, d.Remaining)
	assert.Equal(t, interval, d.Interval)

	assert.True(t, th.Decide(base.Add(interval)).Runnable)
	assert.True(t, th.Decide(base.Add(2*interval)).Runnable)

	last, ok := th.LastRun()
	require.True(t, ok)
	assert.Equal(t, base, last)
}

func TestThrottleZeroInterval(t *testing.T) {
	th := NewThrottle(0)
	now := time.Now()
	th.Record(now)
	assert.True(t, th.Decide(now).Runnable)
}

func TestThrottleRestoreKeepsNewest(t *testing.T) {
	th := NewThrottle(time.Minute)
	newer := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	th.Restore(newer)
	th.Restore(older)
	last, _ := th.LastRun()
	assert.Equal(t, newer, last)
}

func TestThrottleConcurrentAccess(t *testing.T) {
	th := NewThrottle(time.Second)
	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			th.Record(now.Add(time.Duration(i) * time.Millisecond))
		}(i)
		go func() {
			defer wg.Done()
			_ = th.Decide(now)
		}()
	}
	wg.Wait()
	_, ok := th.LastRun()
	assert.True(t, ok)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "runnable", Runnable().String())
	assert.Equal(t, "not yet (3s of 5s remaining)", NotYet(3*time.Second, 5*time.Second).String())
}
